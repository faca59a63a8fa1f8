package httptransport

import (
	"log/slog"

	"github.com/bigMackD/Glyloop-sub002/internal/transport/http/handler"
	"github.com/bigMackD/Glyloop-sub002/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the public auth routes and the JWT-protected API.
func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	eventHandler *handler.EventHandler,
	linkHandler *handler.LinkHandler,
	userHandler *handler.UserHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		sloggin.New(logger),
		middleware.Metrics(),
	)

	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", authHandler.RequestSignIn)
		auth.GET("/verify", authHandler.Verify)
	}

	api := r.Group("/", middleware.Auth(jwtKey))
	{
		api.GET("/me", userHandler.GetProfile)
		api.PUT("/me/tir-target", userHandler.UpdateTirTarget)

		events := api.Group("/events")
		{
			events.POST("/food", eventHandler.LogFood)
			events.POST("/insulin", eventHandler.LogInsulin)
			events.POST("/exercise", eventHandler.LogExercise)
			events.POST("/notes", eventHandler.LogNote)
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.GetByID)
		}

		cgm := api.Group("/cgm")
		{
			cgm.POST("/link", linkHandler.Create)
			cgm.GET("/link", linkHandler.GetActive)
			cgm.DELETE("/link/:id", linkHandler.Delete)
		}
	}

	return r
}
