package service

import (
	"context"
	"strings"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/auth"
	"github.com/dkrasnov/feed-service/internal/models"
	"github.com/dkrasnov/feed-service/internal/realtime"
	"github.com/sirupsen/logrus"
)

// Validation policy: minimum lengths after trimming.
const (
	minTitleLen    = 7
	minContentLen  = 5
	minPasswordLen = 5
)

// UserStore is the credential store the service reads and writes accounts through.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id int64, status string) error
}

// PostStore persists posts with paginated, time-ordered retrieval.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	FindPostByID(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, int, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int64) error
	ListPostIDsByCreator(ctx context.Context, creatorID int64) ([]int64, error)
}

// Broadcaster fans a lifecycle event out to all connected subscribers.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

// ImageRemover deletes a stored image asset by its reference.
type ImageRemover interface {
	Remove(ref string) error
}

// Mailer sends account emails. May be nil when SMTP is not configured.
type Mailer interface {
	SendWelcome(to, name string) error
}

// Service handles business logic
type Service struct {
	users   UserStore
	posts   PostStore
	tokens  *auth.TokenService
	images  ImageRemover
	hub     Broadcaster
	mailer  Mailer
	log     *logrus.Logger
	perPage int
}

// NewService initializes a new service. The broadcast hub is injected here
// so every lifecycle operation has a valid handle from construction on.
func NewService(users UserStore, posts PostStore, tokens *auth.TokenService, images ImageRemover, hub Broadcaster, mailer Mailer, log *logrus.Logger, perPage int) *Service {
	return &Service{
		users:   users,
		posts:   posts,
		tokens:  tokens,
		images:  images,
		hub:     hub,
		mailer:  mailer,
		log:     log,
		perPage: perPage,
	}
}

// normalizeEmail lowercases and trims an email address before any lookup
// or uniqueness check.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// validatePost checks the title/content length policy shared by create and
// update. Returns one FieldError per failed check.
func validatePost(title, content string) []apperr.FieldError {
	var fields []apperr.FieldError
	if len(strings.TrimSpace(title)) < minTitleLen {
		fields = append(fields, apperr.FieldError{Field: "title", Message: "Title must be at least 7 characters long"})
	}
	if len(strings.TrimSpace(content)) < minContentLen {
		fields = append(fields, apperr.FieldError{Field: "content", Message: "Content must be at least 5 characters long"})
	}
	return fields
}

// removeImage deletes a stored asset without joining the caller's error
// path. Failures are logged and swallowed.
func (s *Service) removeImage(ref string) {
	go func() {
		if err := s.images.Remove(ref); err != nil {
			s.log.Warnf("Failed to remove image %s: %v", ref, err)
		}
	}()
}
