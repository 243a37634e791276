package handlers

import (
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	jobQueue := services.GetJobQueue()
	queueMode := "sync"
	if jobQueue != nil && jobQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Tasks waiting on spam review
	var reviewCount int64
	models.GetDB().Model(&models.Task{}).
		Where("status = ?", models.TaskSpamReview).
		Count(&reviewCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "carehub",
		"components": gin.H{
			"database":        dbStatus,
			"queue_mode":      queueMode,
			"pending_reviews": reviewCount,
		},
	})
}
