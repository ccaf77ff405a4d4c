package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dkrasnov/feed-service/internal/auth"
	"github.com/dkrasnov/feed-service/internal/middleware"
	"github.com/dkrasnov/feed-service/internal/models"
	"github.com/dkrasnov/feed-service/internal/realtime"
	"github.com/dkrasnov/feed-service/internal/repository"
	"github.com/dkrasnov/feed-service/internal/service"
	"github.com/dkrasnov/feed-service/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory credential + post store backing handler tests.
type memStore struct {
	mu         sync.Mutex
	nextUserID int64
	nextPostID int64
	users      map[int64]*models.User
	posts      map[int64]*models.Post
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*models.User{}, posts: map[int64]*models.Post{}}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memStore) UpdateUserStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (m *memStore) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPostID++
	post.ID = m.nextPostID
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *memStore) FindPostByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (m *memStore) ListPosts(_ context.Context, limit, offset int) ([]models.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]models.Post, 0, len(m.posts))
	for _, post := range m.posts {
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

func (m *memStore) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.ImageURL = post.ImageURL
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memStore) ListPostIDsByCreator(_ context.Context, creatorID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for id, post := range m.posts {
		if post.CreatorID == creatorID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// newTestRouter wires the real service, handlers and middleware over an
// in-memory store, mirroring the route table the server installs.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := newMemStore()
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	images, err := storage.NewImageStore(t.TempDir())
	require.NoError(t, err)
	hub := realtime.NewHub(log)
	svc := service.NewService(store, store, tokens, images, hub, nil, log, 2)
	h := NewHandler(svc, images, log, "http://feed.test")

	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.HandleFunc("/auth/signup", h.Signup).Methods("PUT")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/feed/rss", h.RSS).Methods("GET")
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(tokens))
	authRouter.HandleFunc("/auth/status", h.GetStatus).Methods("GET")
	authRouter.HandleFunc("/auth/status", h.UpdateStatus).Methods("PATCH")
	authRouter.HandleFunc("/feed/posts", h.GetPosts).Methods("GET")
	authRouter.HandleFunc("/feed/post", h.CreatePost).Methods("POST")
	authRouter.HandleFunc("/feed/post/{postId}", h.GetPost).Methods("GET")
	authRouter.HandleFunc("/feed/post/{postId}", h.UpdatePost).Methods("PUT")
	authRouter.HandleFunc("/feed/post/{postId}", h.DeletePost).Methods("DELETE")
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

// signupAndLogin registers an account and returns its bearer token and id.
func signupAndLogin(t *testing.T, router http.Handler, email, name string) (string, int64) {
	t.Helper()
	resp := doJSON(t, router, http.MethodPut, "/auth/signup", "", map[string]string{
		"email": email, "name": name, "password": "secret5",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "secret5",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decodeBody(t, resp)
	return body["token"].(string), int64(body["userId"].(float64))
}

// multipartPost builds a multipart body with title, content and optionally
// an image part carrying the given MIME type.
func multipartPost(t *testing.T, fields map[string]string, imageMIME string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if imageMIME != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="upload.bin"`)
		header.Set("Content-Type", imageMIME)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func createPost(t *testing.T, router http.Handler, token, title, content string) int64 {
	t.Helper()
	body, contentType := multipartPost(t, map[string]string{"title": title, "content": content}, "image/png")
	req := httptest.NewRequest(http.MethodPost, "/feed/post", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	payload := decodeBody(t, resp)
	post := payload["post"].(map[string]interface{})
	return int64(post["id"].(float64))
}
