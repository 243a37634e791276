package main

import (
	"github.com/carewise/carehub/internal/middleware"
	"github.com/carewise/carehub/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated intake routes
	ingestLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// Root-level intake route for upstream gateways (token auth)
	r.POST("/ingest/:queue", ingestLimiter.Middleware(), svc.ingestHandler.Ingest)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(5, 10), svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		protected.Use(middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Dashboard
			protected.GET("/dashboard/stats", svc.dashboardHandler.GetStats)

			// Tasks
			protected.GET("/tasks", svc.taskHandler.List)
			protected.GET("/tasks/:id", svc.taskHandler.GetByID)
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.POST("/tasks/:id/assign", svc.taskHandler.Assign)
			protected.POST("/tasks/:id/complete", svc.taskHandler.Complete)
			protected.POST("/tasks/:id/requeue", svc.taskHandler.Requeue)
			protected.DELETE("/tasks/:id", middleware.ManagerRequired(), svc.taskHandler.Delete)

			// Spam classification
			protected.POST("/spam/classify", svc.spamHandler.Classify)
			protected.POST("/spam/classify-batch", svc.spamHandler.ClassifyBatch)
			protected.GET("/spam/review-queue", svc.spamHandler.ReviewQueue)
			protected.POST("/spam/decisions", svc.spamHandler.RecordDecision)
			protected.DELETE("/spam/decisions", middleware.ManagerRequired(), svc.spamHandler.RemoveDecision)
			protected.POST("/spam/sweep/:queue", middleware.ManagerRequired(), svc.spamHandler.Sweep)

			// Spam rules
			protected.GET("/spam-rules", svc.spamRuleHandler.List)
			protected.POST("/spam-rules", middleware.ManagerRequired(), svc.spamRuleHandler.Create)
			protected.PUT("/spam-rules/:id", middleware.ManagerRequired(), svc.spamRuleHandler.Update)
			protected.POST("/spam-rules/:id/toggle", middleware.ManagerRequired(), svc.spamRuleHandler.Toggle)
			protected.DELETE("/spam-rules/:id", middleware.ManagerRequired(), svc.spamRuleHandler.Delete)
			protected.POST("/spam-rules/test", svc.spamRuleHandler.TestRule)

			// Users (admin only)
			users := protected.Group("/users", middleware.AdminRequired())
			{
				users.GET("", svc.userHandler.List)
				users.GET("/:id", svc.userHandler.GetByID)
				users.POST("", svc.userHandler.Create)
				users.PUT("/:id", svc.userHandler.Update)
				users.DELETE("/:id", svc.userHandler.Delete)
			}

			// System logs (admin only)
			logs := protected.Group("/system-logs", middleware.AdminRequired())
			{
				logs.GET("", svc.systemLogHandler.List)
				logs.GET("/retention", svc.systemLogHandler.GetRetention)
				logs.PUT("/retention", svc.systemLogHandler.SetRetention)
			}
		}
	}
}
