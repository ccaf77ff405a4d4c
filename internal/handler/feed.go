package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/auth"
	"github.com/dkrasnov/feed-service/internal/storage"
)

type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

// GetPosts handles GET /feed/posts?page=N
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	posts, total, err := h.svc.ListPosts(r.Context(), page)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"posts":      posts,
		"totalItems": total,
	})
}

// CreatePost handles POST /feed/post (multipart with an image upload)
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		h.respondError(w, apperr.Authentication("Not authenticated"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.respondError(w, apperr.Validation("Invalid multipart body"))
		return
	}

	imageURL, err := h.extractImage(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	post, err := h.svc.CreatePost(r.Context(), identity.UserID, r.FormValue("title"), r.FormValue("content"), imageURL)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post created successfully",
		"post":    post,
		"creator": post.Creator,
	})
}

// GetPost handles GET /feed/post/{postId}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// UpdatePost handles PUT /feed/post/{postId}. The body is either multipart
// (new image upload, or the existing reference in the "image" field) or
// plain JSON re-supplying the existing reference.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		h.respondError(w, apperr.Authentication("Not authenticated"))
		return
	}

	id, err := postID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var title, content, imageURL string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.respondError(w, apperr.Validation("Invalid multipart body"))
			return
		}
		title = r.FormValue("title")
		content = r.FormValue("content")
		imageURL, err = h.extractImage(r)
		if err != nil {
			h.respondError(w, err)
			return
		}
	} else {
		var req updatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, apperr.Validation("Invalid request body"))
			return
		}
		title, content, imageURL = req.Title, req.Content, req.Image
	}

	post, err := h.svc.UpdatePost(r.Context(), identity.UserID, id, title, content, imageURL)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post updated",
		"post":    post,
	})
}

// DeletePost handles DELETE /feed/post/{postId}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		h.respondError(w, apperr.Authentication("Not authenticated"))
		return
	}

	id, err := postID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	user, err := h.svc.DeletePost(r.Context(), identity.UserID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post deleted",
		"user":    user,
	})
}

// extractImage resolves the image reference for a create/update request.
// A new upload is stored and its reference returned; with no file attached
// the "image" form field (an existing reference) is used. An upload with a
// rejected MIME type counts as no image at all.
func (h *Handler) extractImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		// No file attached; fall back to a re-supplied reference.
		return r.FormValue("image"), nil
	}
	defer file.Close()

	ref, err := h.images.Save(file, header)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Internal("Failed to store image", err)
	}
	return ref, nil
}
