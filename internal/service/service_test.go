package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dkrasnov/feed-service/internal/auth"
	"github.com/dkrasnov/feed-service/internal/models"
	"github.com/dkrasnov/feed-service/internal/realtime"
	"github.com/dkrasnov/feed-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// opLog records the order of store writes and broadcasts so tests can
// assert that events fire only after the corresponding write committed.
type opLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *opLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) UpdateUserStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	user.UpdatedAt = time.Now()
	return nil
}

type fakePosts struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post
	log    *opLog
}

func newFakePosts(log *opLog) *fakePosts {
	return &fakePosts{posts: map[int64]*models.Post{}, log: log}
}

func (f *fakePosts) CreatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	post.ID = f.nextID
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	copied := *post
	f.posts[post.ID] = &copied
	f.log.add("store:create")
	return nil
}

func (f *fakePosts) FindPostByID(_ context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (f *fakePosts) ListPosts(_ context.Context, limit, offset int) ([]models.Post, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.Post, 0, len(f.posts))
	for _, post := range f.posts {
		all = append(all, *post)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []models.Post{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakePosts) UpdatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.ImageURL = post.ImageURL
	existing.UpdatedAt = time.Now()
	post.UpdatedAt = existing.UpdatedAt
	f.log.add("store:update")
	return nil
}

func (f *fakePosts) DeletePost(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.posts, id)
	f.log.add("store:delete")
	return nil
}

func (f *fakePosts) ListPostIDsByCreator(_ context.Context, creatorID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for id, post := range f.posts {
		if post.CreatorID == creatorID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeHub struct {
	mu     sync.Mutex
	events []realtime.Event
	log    *opLog
}

func newFakeHub(log *opLog) *fakeHub {
	return &fakeHub{log: log}
}

func (f *fakeHub) Broadcast(event realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.log.add("broadcast:" + string(event.Action))
}

func (f *fakeHub) list() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]realtime.Event(nil), f.events...)
}

type fakeImages struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (f *fakeImages) Remove(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, ref)
	return nil
}

func (f *fakeImages) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type fixtures struct {
	users  *fakeUsers
	posts  *fakePosts
	hub    *fakeHub
	images *fakeImages
	ops    *opLog
}

func newTestService(perPage int) (*Service, *fixtures) {
	ops := &opLog{}
	f := &fixtures{
		users:  newFakeUsers(),
		posts:  newFakePosts(ops),
		hub:    newFakeHub(ops),
		images: &fakeImages{},
		ops:    ops,
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	svc := NewService(f.users, f.posts, tokens, f.images, f.hub, nil, log, perPage)
	return svc, f
}
