package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/service"
	"github.com/dkrasnov/feed-service/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxUploadSize caps multipart request parsing at 10 MiB.
const maxUploadSize = 10 << 20

type Handler struct {
	svc       *service.Service
	images    *storage.ImageStore
	log       *logrus.Logger
	publicURL string
}

func NewHandler(svc *service.Service, images *storage.ImageStore, log *logrus.Logger, publicURL string) *Handler {
	return &Handler{svc: svc, images: images, log: log, publicURL: publicURL}
}

// respondJSON writes payload as a JSON response with the given status.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// respondError classifies err and renders it as {message, [data]}. Internal
// detail is logged, never sent to the client.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		h.log.Errorf("Internal error: %v", appErr)
	}

	body := map[string]interface{}{"message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["data"] = appErr.Fields
	}
	h.respondJSON(w, appErr.Status(), body)
}

// postID extracts the {postId} route variable.
func postID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["postId"], 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Could not find post")
	}
	return id, nil
}
