package routes

import (
	"context"
	"net/http"
	"time"

	handlers "goclean/internal/handlers/shared"
	"goclean/internal/middleware"
	"goclean/internal/utils"
	"goclean/pkg/metrics"
	"goclean/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth         *handlers.AuthHandler
	Referral     *handlers.ReferralHandler
	Notification *handlers.NotificationHandler
	BookingEvent *handlers.BookingEventHandler
	WebSocket    *websocket.Handler
}

// Presence reports how many live sockets this instance holds.
type Presence interface {
	ConnectionCount() int
}

type Options struct {
	JWTSecret     string
	InternalToken string
	Version       string
	Dependencies  map[string]Pinger
	Presence      Presence
}

func SetupRoutes(r *gin.Engine, h *Handlers, opts Options) {
	r.GET("/health", healthCheck(opts))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authRequired := middleware.AuthRequired(opts.JWTSecret)

	if h.WebSocket != nil {
		r.GET("/ws", authRequired, h.WebSocket.HandleWebSocket)
	}

	v1 := r.Group("/api/v1")

	SetupAuthRoutes(v1, h.Auth, authRequired)

	referrals := v1.Group("/referrals")
	referrals.Use(authRequired)
	{
		referrals.GET("/progress", h.Referral.GetProgress)
	}

	notifications := v1.Group("/notifications")
	notifications.Use(authRequired)
	{
		notifications.GET("", h.Notification.GetNotifications)
		notifications.PATCH("/read-all", h.Notification.MarkAllAsRead)
		notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
		notifications.DELETE("/:id", h.Notification.DeleteNotification)
	}

	internal := v1.Group("/internal")
	internal.Use(middleware.InternalTokenRequired(opts.InternalToken))
	{
		internal.POST("/bookings/:customerId/completed", h.BookingEvent.BookingCompleted)
	}
}

func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, authRequired gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/complete-registration", authHandler.CompleteRegistration)
		auth.POST("/resend-otp", authHandler.ResendOTP)
		auth.POST("/login", authHandler.Login)
		auth.POST("/validate-token", authHandler.ValidateToken)

		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/verify-forgot-password-otp", authHandler.VerifyForgotPasswordOTP)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := auth.Group("")
	protected.Use(authRequired)
	{
		protected.GET("/me", authHandler.GetProfile)
		protected.POST("/change-password", authHandler.ChangePassword)
	}
}

func healthCheck(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(opts.Dependencies))
		for name, dep := range opts.Dependencies {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		overall := utils.StatusSuccess
		if status != http.StatusOK {
			overall = utils.StatusError
		}
		body := gin.H{
			"status":       overall,
			"version":      opts.Version,
			"dependencies": checks,
			"timestamp":    time.Now(),
		}
		if opts.Presence != nil {
			body["websocket_connections"] = opts.Presence.ConnectionCount()
		}
		c.JSON(status, body)
	}
}
