package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/api/respond"
)

// UserIDHeader carries the id of the caller, set by the identity proxy in
// front of the service.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests without a valid user id header and stores the
// id on the context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			respond.Fail(c.Writer, http.StatusUnauthorized, errors.New("missing user id"))
			c.Abort()
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			zlog.Logger.Warn().Str("header", raw).Msg("invalid user id header")
			respond.Fail(c.Writer, http.StatusUnauthorized, errors.New("invalid user id"))
			c.Abort()
			return
		}

		c.Set(userIDKey, id)
		c.Next()
	}
}

// SetUserID stores id on the context.
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(userIDKey, id)
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}

	id, ok := v.(uuid.UUID)
	return id, ok
}
