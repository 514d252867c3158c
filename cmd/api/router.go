package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appDelivery "jobtrack-backend/internal/application/delivery"
	"jobtrack-backend/internal/auth/delivery"
	authUsecase "jobtrack-backend/internal/auth/usecase"
	deviceDelivery "jobtrack-backend/internal/device/delivery"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, appHandler *appDelivery.ApplicationHandler, deviceHandler *deviceDelivery.DeviceHandler, settingsHandler *SettingsHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		protected := api.Group("")
		protected.Use(delivery.AuthMiddleware(authUsecase))

		// Capture routes (browser extension)
		captures := protected.Group("/captures")
		{
			captures.POST("", appHandler.CreateCapture)
			captures.POST("/import", appHandler.ImportCaptures)
		}

		protected.POST("/sync", appHandler.Sync)

		// Application routes
		applications := protected.Group("/applications")
		{
			applications.GET("", appHandler.GetApplications)
			applications.GET("/:id", appHandler.GetApplicationByID)
			applications.PATCH("/:id/follow-up", appHandler.SetFollowUp)
		}

		export := protected.Group("/export")
		{
			export.GET("/applications.csv", appHandler.ExportApplications)
			export.GET("/events.csv", appHandler.ExportEvents)
		}

		// Device routes for push notifications
		if deviceHandler != nil {
			devices := protected.Group("/devices")
			{
				devices.POST("", deviceHandler.RegisterDevice)
				devices.DELETE("/:token", deviceHandler.UnregisterDevice)
			}
		}

		// Settings routes - rule tables
		settings := protected.Group("/settings")
		{
			settings.GET("/rules", settingsHandler.GetRules)
			settings.POST("/rules/test", settingsHandler.TestRules)
		}
	}
}
