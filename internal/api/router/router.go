package router

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"github.com/Juanes7222/AppNotify/internal/api/handlers/notification"
	"github.com/Juanes7222/AppNotify/internal/api/respond"
	"github.com/Juanes7222/AppNotify/internal/middlewares"
)

// New builds the HTTP router. Notification routes require the user id header.
func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	metrics := promhttp.Handler()

	e.GET("/health", func(c *ginext.Context) {
		respond.OK(c.Writer, "ok")
	})
	e.GET("/metrics", func(c *ginext.Context) {
		metrics.ServeHTTP(c.Writer, c.Request)
	})

	api := e.Group("/api/notifications")
	api.Use(middlewares.RequireUser())
	{
		api.GET("", handler.List)
		api.GET("/stats", handler.Stats)
		api.GET("/:id/status", handler.GetStatus)
		api.POST("/:id/send-test", handler.SendTest)
		api.POST("/test-email", handler.TestEmail)
	}

	return e
}
