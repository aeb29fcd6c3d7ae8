package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/api/respond"
	"github.com/Juanes7222/AppNotify/internal/config"
	"github.com/Juanes7222/AppNotify/internal/middlewares"
	"github.com/Juanes7222/AppNotify/internal/model"
	contactrepo "github.com/Juanes7222/AppNotify/internal/repository/contact"
	"github.com/Juanes7222/AppNotify/internal/repository/notification"
	notifsvc "github.com/Juanes7222/AppNotify/internal/service/notification"
	"github.com/Juanes7222/AppNotify/pkg/email"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks

type notificationService interface {
	List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]model.NotificationView, error)
	Stats(ctx context.Context, userID uuid.UUID) (model.Stats, error)
	GetNotificationStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error)
	SendNow(ctx context.Context, id, userID uuid.UUID) (model.Notification, error)
	SendTestEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

type listQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending sent failed"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type statusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type testEmailResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// Handler handles HTTP requests related to notifications.
//
// It provides endpoints for listing a user's notifications and for checking
// or test-sending a single notification.
type Handler struct {
	service   notificationService
	validator *validator.Validate
	cfg       *config.Config
}

// NewHandler creates a new Handler instance.
//
// Parameters:
//   - s: implementation of notificationService
//   - v: validator instance for query validation
//   - cfg: configuration instance, used for the cache retry strategy
func NewHandler(
	s notificationService,
	v *validator.Validate,
	cfg *config.Config,
) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// List returns the caller's notifications, optionally filtered by status.
func (h *Handler) List(c *ginext.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to bind query")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid query"))
		return
	}

	if err := h.validator.Struct(q); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate query")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	views, err := h.service.List(c.Request.Context(), userID, q.Status, q.Limit)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, views)
}

// Stats returns the caller's notification counts by status.
func (h *Handler) Stats(c *ginext.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get notification stats")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, stats)
}

// GetStatus handles HTTP GET requests to retrieve the status of a notification.
//
// It expects the notification ID as a URL parameter and returns the ID with
// its current status.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	status, err := h.service.GetNotificationStatusByID(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			zlog.Logger.Warn().Interface("id", id).Err(err).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Interface("id", id).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, statusResponse{ID: id, Status: status})
}

// SendTest delivers a pending notification right away with the test template.
func (h *Handler) SendTest(c *ginext.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.service.SendNow(c.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, notification.ErrNotificationNotFound):
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
		case errors.Is(err, notification.ErrNotPending):
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification is not pending"))
		case errors.Is(err, notifsvc.ErrAlreadyClaimed):
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification is being delivered"))
		default:
			zlog.Logger.Error().Err(err).Interface("id", id).Msg("failed to send notification")
			respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}
		return
	}

	respond.OK(c.Writer, n)
}

// TestEmail sends the mail check message to the caller.
func (h *Handler) TestEmail(c *ginext.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}

	to, err := h.service.SendTestEmail(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, contactrepo.ErrUserNotFound):
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("user not found"))
		case errors.Is(err, email.ErrNotConfigured):
			respond.Fail(c.Writer, http.StatusServiceUnavailable, fmt.Errorf("email is not configured"))
		default:
			zlog.Logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to send test email")
			respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("failed to send test email"))
		}
		return
	}

	respond.OK(c.Writer, testEmailResponse{Message: "Test email sent", Email: to})
}

func (h *Handler) user(c *ginext.Context) (uuid.UUID, bool) {
	id, ok := middlewares.UserID(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("missing user id"))
		return uuid.Nil, false
	}

	return id, true
}

func parseID(c *ginext.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Error().Err(err).Interface("idStr", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing id"))
		return uuid.Nil, false
	}

	return id, true
}
