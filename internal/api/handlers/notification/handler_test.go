package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/Juanes7222/AppNotify/internal/config"
	"github.com/Juanes7222/AppNotify/internal/middlewares"
	mocks "github.com/Juanes7222/AppNotify/internal/mocks/api/handlers/notification"
	"github.com/Juanes7222/AppNotify/internal/model"
	contactrepo "github.com/Juanes7222/AppNotify/internal/repository/contact"
	"github.com/Juanes7222/AppNotify/internal/repository/notification"
	notifsvc "github.com/Juanes7222/AppNotify/internal/service/notification"
	"github.com/Juanes7222/AppNotify/pkg/email"
)

func setupHandler(t *testing.T) (*Handler, *mocks.MocknotificationService, *config.Config) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMocknotificationService(ctrl)
	cfg := &config.Config{Retry: retry.Strategy{Attempts: 3, Delay: time.Millisecond}}
	validate := validator.New()
	handler := NewHandler(mockService, validate, cfg)
	return handler, mockService, cfg
}

func newContext(method, target string, userID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)

	if userID != uuid.Nil {
		middlewares.SetUserID(c, userID)
	}

	return c, w
}

func TestHandler_List_Success(t *testing.T) {
	handler, mockService, _ := setupHandler(t)
	userID := uuid.New()

	c, w := newContext(http.MethodGet, "/api/notifications?status=sent&limit=20", userID)

	views := []model.NotificationView{{
		Notification: model.Notification{ID: uuid.New(), Status: model.StatusSent},
		EventTitle:   "Standup",
		ContactName:  "Ana",
	}}

	mockService.EXPECT().List(gomock.Any(), userID, "sent", 20).Return(views, nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Result []model.NotificationView `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Result, 1)
	assert.Equal(t, "Standup", body.Result[0].EventTitle)
}

func TestHandler_List_Defaults(t *testing.T) {
	handler, mockService, _ := setupHandler(t)
	userID := uuid.New()

	c, w := newContext(http.MethodGet, "/api/notifications", userID)

	mockService.EXPECT().List(gomock.Any(), userID, "", 0).Return([]model.NotificationView{}, nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_List_InvalidQuery(t *testing.T) {
	handler, _, _ := setupHandler(t)
	userID := uuid.New()

	for _, target := range []string{
		"/api/notifications?status=cancelled",
		"/api/notifications?limit=abc",
		"/api/notifications?limit=1000",
	} {
		c, w := newContext(http.MethodGet, target, userID)
		handler.List(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestHandler_List_Unauthorized(t *testing.T) {
	handler, _, _ := setupHandler(t)

	c, w := newContext(http.MethodGet, "/api/notifications", uuid.Nil)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Stats(t *testing.T) {
	handler, mockService, _ := setupHandler(t)
	userID := uuid.New()

	c, w := newContext(http.MethodGet, "/api/notifications/stats", userID)

	mockService.EXPECT().Stats(gomock.Any(), userID).Return(model.Stats{Pending: 1, Sent: 2, Failed: 3}, nil)

	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"result":{"pending_notifications":1,"sent_notifications":2,"failed_notifications":3}}`,
		w.Body.String(),
	)
}

func TestHandler_Stats_Error(t *testing.T) {
	handler, mockService, _ := setupHandler(t)
	userID := uuid.New()

	c, w := newContext(http.MethodGet, "/api/notifications/stats", userID)
	mockService.EXPECT().Stats(gomock.Any(), userID).Return(model.Stats{}, errors.New("db error"))

	handler.Stats(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_GetStatus_Success(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()

	c, w := newContext(http.MethodGet, "/api/notifications/"+id.String()+"/status", uuid.New())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		GetNotificationStatusByID(gomock.Any(), cfg.Retry, id).
		Return(model.StatusPending, nil)

	handler.GetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"id":"`+id.String()+`","status":"pending"}}`, w.Body.String())
}

func TestHandler_GetStatus_NotFound(t *testing.T) {
	handler, mockService, cfg := setupHandler(t)
	id := uuid.New()

	c, w := newContext(http.MethodGet, "/", uuid.New())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.EXPECT().
		GetNotificationStatusByID(gomock.Any(), cfg.Retry, id).
		Return("", notification.ErrNotificationNotFound)

	handler.GetStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetStatus_InvalidID(t *testing.T) {
	handler, _, _ := setupHandler(t)

	for _, raw := range []string{"nope", uuid.Nil.String()} {
		c, w := newContext(http.MethodGet, "/", uuid.New())
		c.Params = gin.Params{{Key: "id", Value: raw}}

		handler.GetStatus(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestHandler_SendTest(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "sent", status: http.StatusOK},
		{name: "not found", err: notification.ErrNotificationNotFound, status: http.StatusNotFound},
		{name: "not pending", err: notification.ErrNotPending, status: http.StatusConflict},
		{name: "claimed", err: notifsvc.ErrAlreadyClaimed, status: http.StatusConflict},
		{name: "store error", err: errors.New("db error"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService, _ := setupHandler(t)

			c, w := newContext(http.MethodPost, "/", userID)
			c.Params = gin.Params{{Key: "id", Value: id.String()}}

			mockService.EXPECT().
				SendNow(gomock.Any(), id, userID).
				Return(model.Notification{ID: id, Status: model.StatusSent}, tt.err)

			handler.SendTest(c)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_TestEmail(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "sent", status: http.StatusOK},
		{name: "unknown user", err: contactrepo.ErrUserNotFound, status: http.StatusNotFound},
		{name: "not configured", err: email.ErrNotConfigured, status: http.StatusServiceUnavailable},
		{name: "smtp error", err: errors.New("535 auth"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService, _ := setupHandler(t)

			c, w := newContext(http.MethodPost, "/api/notifications/test-email", userID)

			to := ""
			if tt.err == nil {
				to = "owner@example.com"
			}
			mockService.EXPECT().SendTestEmail(gomock.Any(), userID).Return(to, tt.err)

			handler.TestEmail(c)

			assert.Equal(t, tt.status, w.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"result":{"message":"Test email sent","email":"owner@example.com"}}`, w.Body.String())
			}
		})
	}
}
