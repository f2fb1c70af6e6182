package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authHandler         *handler.AuthHandler
	profileHandler      *handler.ProfileHandler
	eventHandler        *handler.EventHandler
	matchHandler        *handler.MatchHandler
	conversationHandler *handler.ConversationHandler
	streamHandler       *handler.StreamHandler
	authMiddleware      *middleware.AuthMiddleware
	limiter             *middleware.LimiterStore
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	eventHandler *handler.EventHandler,
	matchHandler *handler.MatchHandler,
	conversationHandler *handler.ConversationHandler,
	streamHandler *handler.StreamHandler,
	authMiddleware *middleware.AuthMiddleware,
	limiter *middleware.LimiterStore,
) *Router {
	return &Router{
		authHandler:         authHandler,
		profileHandler:      profileHandler,
		eventHandler:        eventHandler,
		matchHandler:        matchHandler,
		conversationHandler: conversationHandler,
		streamHandler:       streamHandler,
		authMiddleware:      authMiddleware,
		limiter:             limiter,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/dev-token", r.authHandler.DevToken)

		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth(), middleware.RateLimit(r.limiter))
		{
			auth := protected.Group("/auth")
			{
				auth.GET("/me", r.authHandler.Me)
				auth.POST("/logout", r.authHandler.Logout)
			}

			profile := protected.Group("/profile")
			{
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.PUT("/me", r.profileHandler.UpdateMyProfile)
				profile.POST("/setup", r.profileHandler.SetupProfile)
				profile.POST("/me/avatar-url", r.profileHandler.AvatarUploadURL)
				profile.POST("/me/bio-suggestions", r.profileHandler.SuggestBios)
				profile.GET("/:user_id", r.profileHandler.GetProfileByUserID)
			}

			events := protected.Group("/events")
			{
				events.GET("", r.eventHandler.ListUpcoming)
				events.GET("/:id", r.eventHandler.GetEvent)
				events.POST("/:id/register", r.eventHandler.Register)
				events.DELETE("/:id/register", r.eventHandler.CancelRegistration)
				events.GET("/:id/registration", r.eventHandler.GetRegistration)
				events.GET("/:id/attendees", r.eventHandler.Attendees)
				events.POST("/:id/interest/:user_id", r.matchHandler.ExpressInterest)
				events.DELETE("/:id/interest/:user_id", r.matchHandler.WithdrawInterest)
				events.POST("/:id/decline/:user_id", r.matchHandler.DeclineInterest)
			}

			matches := protected.Group("/matches")
			{
				matches.GET("", r.matchHandler.ListMutual)
				matches.GET("/pending", r.matchHandler.ListPending)
				matches.GET("/pending/count", r.matchHandler.PendingCount)
				matches.GET("/:id", r.matchHandler.GetMatch)
				matches.GET("/:id/messages", r.conversationHandler.ListMessages)
				matches.POST("/:id/messages", r.conversationHandler.SendMessage)
				matches.POST("/:id/read", r.conversationHandler.MarkRead)
				matches.POST("/:id/open", r.conversationHandler.Open)
				matches.GET("/:id/stream", r.streamHandler.Stream)
			}

			conversations := protected.Group("/conversations")
			{
				conversations.GET("", r.conversationHandler.ListConversations)
				conversations.GET("/unread", r.conversationHandler.UnreadTotal)
			}
		}
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/health" {
			return
		}
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
