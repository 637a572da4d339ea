package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lenshub/lenshub-backend/internal/config"
	"github.com/lenshub/lenshub-backend/internal/handlers"
	"github.com/lenshub/lenshub-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers the router wires up.
type HandlerDependencies struct {
	AuthHandler      *handlers.AuthHandler
	CampaignHandler  *handlers.CampaignHandler
	SelectionHandler *handlers.SelectionHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}

		// Storefront selection and event tracking
		public.GET("/campaigns/serve", deps.SelectionHandler.Serve)
		public.POST("/campaigns/:id/track/impression", deps.AnalyticsHandler.TrackImpression)
		public.POST("/campaigns/:id/track/click", deps.AnalyticsHandler.TrackClick)
		public.POST("/campaigns/:id/track/conversion", deps.AnalyticsHandler.TrackConversion)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", deps.CampaignHandler.ListCampaigns)
			campaigns.POST("", deps.CampaignHandler.CreateCampaign)
			campaigns.POST("/bulk", deps.CampaignHandler.BulkApply)
			campaigns.GET("/analytics/summary", deps.AnalyticsHandler.Summary)
			campaigns.GET("/:id", deps.CampaignHandler.GetCampaignByID)
			campaigns.PUT("/:id", deps.CampaignHandler.UpdateCampaign)
			campaigns.DELETE("/:id", deps.CampaignHandler.DeleteCampaign)
			campaigns.GET("/:id/analytics", deps.AnalyticsHandler.GetAnalytics)
			campaigns.GET("/:id/schedule/next", deps.CampaignHandler.NextOccurrence)

			// Lifecycle transitions
			campaigns.POST("/:id/submit", deps.CampaignHandler.SubmitForReview)
			campaigns.POST("/:id/approve", deps.CampaignHandler.Approve)
			campaigns.POST("/:id/reject", deps.CampaignHandler.Reject)
			campaigns.POST("/:id/schedule", deps.CampaignHandler.Schedule)
			campaigns.POST("/:id/unschedule", deps.CampaignHandler.Unschedule)
			campaigns.POST("/:id/activate", deps.CampaignHandler.Activate)
			campaigns.POST("/:id/deactivate", deps.CampaignHandler.Deactivate)
			campaigns.POST("/:id/complete", deps.CampaignHandler.Complete)
		}
	}

	return router
}
