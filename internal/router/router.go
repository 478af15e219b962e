package router

import (
	"github.com/anonto42/nano-midea/interactions/internal/handlers"
	"github.com/anonto42/nano-midea/interactions/internal/middleware"
	"github.com/anonto42/nano-midea/interactions/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log logrus.FieldLogger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.Metrics())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, svc *services.Services, jwtSecret string, log logrus.FieldLogger) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))
	log.Info("JWT authentication middleware applied to /api/v1 group.")

	handlers.NewPostHandler(svc.Posts, log).RegisterPostRoutes(api)
	handlers.NewLikeHandler(svc.Toggles, log).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(svc.Threads, log).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(svc.Feed, log).RegisterFeedRoutes(api)
	handlers.NewChatHandler(svc.Chats, log).RegisterChatRoutes(api)

	log.Info("All routes configured.")
}
