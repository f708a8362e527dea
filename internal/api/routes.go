package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r. A nil metrics handler leaves
// /metrics unrouted.
func RegisterRoutes(r *gin.Engine, h *Handler, metrics http.Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/catalog", h.catalogInfo)
		api.POST("/assets/reload", h.reloadAssets)

		api.POST("/sessions", h.createSession)
		s := api.Group("/sessions/:id")
		s.GET("", h.getSession)
		s.DELETE("", h.deleteSession)
		s.POST("/generate", h.generate)
		s.POST("/import", h.importCSV)
		s.GET("/preview.png", h.preview)
		s.GET("/qr.png", h.qr)
		s.POST("/next", h.apply(next))
		s.POST("/prev", h.apply(prev))
		s.POST("/jump/:index", h.apply(jump))
		s.PUT("/hue", h.setHue)
		s.DELETE("/hue", h.resetHue)
		s.PUT("/category", h.setCategory)
		s.POST("/reset", h.reset)
		s.GET("/export", h.export)
	}
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
