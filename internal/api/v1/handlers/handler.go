// Package handlers implements the HTTP surface: authentication, the
// user-facing task API and the administrative console endpoints.
package handlers

import (
	"github.com/go-playground/validator/v10"

	"taskboard/internal/cache"
	"taskboard/internal/events"
	"taskboard/internal/repository"
	"taskboard/internal/token"
)

// Handler carries the dependencies every endpoint needs. The cache and event
// hub are optional; nil disables them.
type Handler struct {
	users    repository.UserStore
	tasks    repository.TaskStore
	tokens   *token.Manager
	cache    *cache.Cache
	events   *events.Hub
	validate *validator.Validate
}

func New(users repository.UserStore, tasks repository.TaskStore, tokens *token.Manager) *Handler {
	return &Handler{
		users:    users,
		tasks:    tasks,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// WithCache attaches the Redis cache layer.
func (h *Handler) WithCache(c *cache.Cache) *Handler {
	h.cache = c
	return h
}

// WithEvents attaches the websocket event hub.
func (h *Handler) WithEvents(hub *events.Hub) *Handler {
	h.events = hub
	return h
}

func (h *Handler) publish(ev events.Event) {
	if h.events != nil {
		h.events.Publish(ev)
	}
}
