package handler

import (
	"net/http"

	"github.com/dkrasnov/feed-service/internal/export"
)

// rssItemLimit caps how many posts the RSS document carries.
const rssItemLimit = 20

// RSS handles GET /feed/rss, the public export of the newest posts.
func (h *Handler) RSS(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.LatestPosts(r.Context(), rssItemLimit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	payload, err := export.RenderRSS(h.publicURL, posts)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(payload)
}
