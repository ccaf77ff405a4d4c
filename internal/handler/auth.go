package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// Signup handles PUT /auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperr.Validation("Invalid request body"))
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperr.Validation("Invalid request body"))
		return
	}

	token, userID, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"userId": userID,
	})
}

// GetStatus handles GET /auth/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		h.respondError(w, apperr.Authentication("Not authenticated"))
		return
	}

	status, err := h.svc.GetStatus(r.Context(), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// UpdateStatus handles PATCH /auth/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		h.respondError(w, apperr.Authentication("Not authenticated"))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperr.Validation("Invalid request body"))
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), identity.UserID, req.Status); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}
