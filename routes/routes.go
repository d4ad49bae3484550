package routes

import (
	"idea-portal-api/controllers"
	"idea-portal-api/middleware"
	"idea-portal-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/auth/register", controllers.Register)
			public.POST("/auth/login", controllers.Login)
			public.POST("/auth/forgot-password", controllers.ForgotPassword)
			public.POST("/auth/reset-password", controllers.ResetPassword)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Idea Portal API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Ideas
			ideas := protected.Group("/ideas")
			{
				// Any authenticated user can browse and submit
				ideas.POST("", controllers.CreateIdea)
				ideas.GET("", controllers.GetIdeas)
				ideas.GET("/ranked", controllers.GetRankedIdeas)
				ideas.GET("/:id", controllers.GetIdea)
				ideas.GET("/:id/attachment", controllers.DownloadAttachment)

				// Draft editing is owner-only; the service enforces ownership
				ideas.PUT("/:id/draft", controllers.UpdateDraft)
				ideas.POST("/:id/submit", controllers.SubmitDraft)

				// Only admins evaluate
				ideas.PATCH("/:id/status", middleware.RequireRole(models.RoleAdmin), controllers.UpdateIdeaStatus)
				ideas.PUT("/:id/score", middleware.RequireRole(models.RoleAdmin), controllers.ScoreIdea)
			}
		}
	}
}
