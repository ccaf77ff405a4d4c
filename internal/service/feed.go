package service

import (
	"context"
	"errors"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/models"
	"github.com/dkrasnov/feed-service/internal/realtime"
	"github.com/dkrasnov/feed-service/internal/repository"
)

// ListPosts returns one page of posts ordered by creation time descending,
// creators resolved, together with the total number of posts.
func (s *Service) ListPosts(ctx context.Context, page int) ([]models.Post, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.perPage

	posts, total, err := s.posts.ListPosts(ctx, s.perPage, offset)
	if err != nil {
		return nil, 0, apperr.Internal("Failed to fetch posts", err)
	}

	creators := map[int64]*models.Creator{}
	for i := range posts {
		creator, err := s.resolveCreator(ctx, creators, posts[i].CreatorID)
		if err != nil {
			return nil, 0, err
		}
		posts[i].Creator = creator
	}
	return posts, total, nil
}

// CreatePost validates the input, persists a new post owned by the
// authenticated account, and broadcasts a create event once the write has
// committed. The creator comes from the verified identity, never from the
// request payload.
func (s *Service) CreatePost(ctx context.Context, userID int64, title, content, imageURL string) (*models.Post, error) {
	fields := validatePost(title, content)
	if imageURL == "" {
		fields = append(fields, apperr.FieldError{Field: "image", Message: "No image provided"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed, you entered invalid data!", fields...)
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to create post", err)
	}

	post := &models.Post{
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		CreatorID: user.ID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, apperr.Internal("Failed to create post", err)
	}
	post.Creator = &models.Creator{ID: user.ID, Name: user.Name}

	s.hub.Broadcast(realtime.Event{Action: realtime.ActionCreate, Post: post})
	s.log.Infof("Post %d created by user %d", post.ID, user.ID)
	return post, nil
}

// GetPost fetches a single post with its creator resolved.
func (s *Service) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Could not find post")
		}
		return nil, apperr.Internal("Failed to fetch post", err)
	}

	creator, err := s.resolveCreator(ctx, nil, post.CreatorID)
	if err != nil {
		return nil, err
	}
	post.Creator = creator
	return post, nil
}

// UpdatePost replaces title, content and image of an existing post. Checks
// run in a fixed order: existence, then validation, then ownership, so a
// non-owner probing a nonexistent post always sees not-found. When the
// image reference changes the old asset is deleted best-effort.
func (s *Service) UpdatePost(ctx context.Context, userID, postID int64, title, content, imageURL string) (*models.Post, error) {
	post, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Could not find post")
		}
		return nil, apperr.Internal("Failed to update post", err)
	}

	fields := validatePost(title, content)
	if imageURL == "" {
		fields = append(fields, apperr.FieldError{Field: "image", Message: "No image provided"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed, you entered invalid data!", fields...)
	}

	if post.CreatorID != userID {
		return nil, apperr.Authorization("Not authorized!")
	}

	if imageURL != post.ImageURL {
		s.removeImage(post.ImageURL)
	}

	post.Title = title
	post.Content = content
	post.ImageURL = imageURL
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Could not find post")
		}
		return nil, apperr.Internal("Failed to update post", err)
	}

	creator, err := s.resolveCreator(ctx, nil, post.CreatorID)
	if err != nil {
		return nil, err
	}
	post.Creator = creator

	s.hub.Broadcast(realtime.Event{Action: realtime.ActionUpdate, Post: post})
	s.log.Infof("Post %d updated by user %d", post.ID, userID)
	return post, nil
}

// DeletePost removes a post, its image asset (best-effort) and the
// reference from the owner's post set, then broadcasts a delete event
// carrying only the post id. Returns the saved account state.
func (s *Service) DeletePost(ctx context.Context, userID, postID int64) (*models.User, error) {
	post, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Could not find post")
		}
		return nil, apperr.Internal("Failed to delete post", err)
	}

	if post.CreatorID != userID {
		return nil, apperr.Authorization("Not authorized!")
	}

	s.removeImage(post.ImageURL)

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Could not find post")
		}
		return nil, apperr.Internal("Failed to delete post", err)
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to delete post", err)
	}
	ids, err := s.posts.ListPostIDsByCreator(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to delete post", err)
	}
	user.Posts = ids

	s.hub.Broadcast(realtime.Event{Action: realtime.ActionDelete, Post: postID})
	s.log.Infof("Post %d deleted by user %d", postID, userID)
	return user, nil
}

// LatestPosts returns the newest posts up to limit, creators resolved.
// Used by the public RSS export.
func (s *Service) LatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts, _, err := s.posts.ListPosts(ctx, limit, 0)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch posts", err)
	}

	creators := map[int64]*models.Creator{}
	for i := range posts {
		creator, err := s.resolveCreator(ctx, creators, posts[i].CreatorID)
		if err != nil {
			return nil, err
		}
		posts[i].Creator = creator
	}
	return posts, nil
}

// resolveCreator looks up the {id, name} summary for a creator id, using
// cache as a per-request memo when non-nil.
func (s *Service) resolveCreator(ctx context.Context, cache map[int64]*models.Creator, creatorID int64) (*models.Creator, error) {
	if cache != nil {
		if creator, ok := cache[creatorID]; ok {
			return creator, nil
		}
	}
	user, err := s.users.FindUserByID(ctx, creatorID)
	if err != nil {
		return nil, apperr.Internal("Failed to resolve post creator", err)
	}
	creator := &models.Creator{ID: user.ID, Name: user.Name}
	if cache != nil {
		cache[creatorID] = creator
	}
	return creator, nil
}
