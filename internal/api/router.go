// Package api exposes the service operations as an HTTP JSON API.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-Id"

// NewRouter builds the gin engine. Outside dev, gin runs in release mode.
func NewRouter(env string, log zerolog.Logger, svc Service) *gin.Engine {
	if env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(log))

	h := NewHandlers(log, svc)

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.GET("/bootstrap", h.Bootstrap)
	api.POST("/aggregate", h.Aggregate)
	api.POST("/issues", h.Issues)
	api.POST("/issues/export", h.Export)
	api.GET("/views", h.ListViews)
	api.POST("/views", h.SaveView)
	api.DELETE("/views/:name", h.DeleteView)
	api.GET("/admin/config", h.AdminConfig)
	api.PUT("/admin/config", h.SaveAdminConfig)
	api.GET("/perf", h.Perf)
	api.GET("/audit", h.Audit)

	return r
}

// requestID propagates an incoming request id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(RequestIDHeader)).
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	}
}
