package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Assets    *handlers.AssetHandler
	Labels    *handlers.LabelHandler
	Dashboard *handlers.DashboardHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/login", h.Auth.Login)

	secured := api.Group("", h.Auth.RequireSession())
	secured.POST("/logout", h.Auth.Logout)

	secured.GET("/dashboard", h.Dashboard.Summary)
	secured.POST("/dashboard/snapshot", h.Dashboard.RecordSnapshot)

	secured.GET("/assets", h.Assets.List)
	secured.POST("/assets", h.Assets.Create)
	secured.GET("/assets/:tag", h.Assets.Get)
	secured.PUT("/assets/:tag", h.Assets.Update)
	secured.DELETE("/assets/:tag", h.Assets.Delete)
	secured.POST("/assets/:tag/touch", h.Assets.Touch)
	secured.GET("/scan/:code", h.Assets.Scan)
	secured.GET("/history", h.Assets.History)
	secured.POST("/tags/preview", h.Assets.PreviewTag)

	secured.POST("/labels", h.Labels.Print)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
