package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/planora/scheduler/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, statusController *controllers.StatusController) {
	router.GET("/healthz", statusController.HealthCheck)

	// API version group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", statusController.GetStatus)
		v1.GET("/timetable", statusController.GetTimetable)
	}
}
