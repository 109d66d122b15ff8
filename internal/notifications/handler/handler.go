package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"leadflow_backend/internal/notifications/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// Store defines the data access interface needed by the notification routes.
type Store interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]repository.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (repository.Notification, error)
}

type Handler struct {
	store Store
}

func New(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PATCH("/:id/read", h.MarkRead)
}

// List returns the caller's notifications, newest first, with an unread count.
func (h *Handler) List(c *gin.Context) {
	actorID, ok := httpkit.ActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
			return
		}
		limit = parsed
	}

	items, err := h.store.ListForUser(c.Request.Context(), actorID, limit)
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable("notification store unavailable", err))
		return
	}

	unread, err := h.store.CountUnread(c.Request.Context(), actorID)
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable("notification store unavailable", err))
		return
	}

	httpkit.OK(c, gin.H{"notifications": items, "unreadCount": unread})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actorID, ok := httpkit.ActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	n, err := h.store.MarkRead(c.Request.Context(), id, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		httpkit.HandleError(c, apperr.NotFound("notification not found"))
		return
	}
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable("notification store unavailable", err))
		return
	}

	httpkit.OK(c, n)
}
