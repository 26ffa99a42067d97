// Package handler contains the HTTP handlers of the feed API.
//
// Handlers parse requests, call the service layer or the request's
// auth.Controller, and map the outcome to JSON. They hold no business rules.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/service"
)

type PostHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewPostHandler(feed *service.FeedService, logger *slog.Logger) *PostHandler {
	return &PostHandler{feed: feed, logger: logger}
}

type createPostRequest struct {
	Content string `json:"content"`
	Emoji   string `json:"emoji"`
}

// HandleList handles GET /api/posts.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.List(r.Context())
	if err != nil {
		h.logger.Error("listing posts failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate handles POST /api/posts.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.FromContext(r.Context())
	if !ok || !c.SignedIn() {
		writeUnauthorized(w)
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.feed.Publish(r.Context(), c.User(), req.Content, req.Emoji)
	if err != nil {
		h.logger.Warn("publishing post failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleInteract handles POST /api/posts/{id}/{action}.
func (h *PostHandler) HandleInteract(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.FromContext(r.Context())
	if !ok || !c.SignedIn() {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	post, err := h.feed.Interact(r.Context(), id, action)
	if err != nil {
		h.logger.Warn("post interaction failed",
			slog.String("id", id),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
