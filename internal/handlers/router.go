package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	studentHandler    *StudentHandler
	rewardItemHandler *RewardItemHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *CasdoorAuthMiddleware
	logger            utils.Logger
}

// NewHandlerManager wires the API handlers. A nil verifier leaves the API
// unauthenticated, which is only meant for local development.
func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, verifier TokenVerifier) *HandlerManager {
	hm := &HandlerManager{
		serviceManager:    serviceManager,
		studentHandler:    NewStudentHandler(serviceManager.Student(), logger),
		rewardItemHandler: NewRewardItemHandler(serviceManager.RewardItem(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		logger:            logger,
	}
	if verifier != nil {
		hm.authMiddleware = NewCasdoorAuthMiddleware(verifier, logger)
	}
	return hm
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	if hm.authMiddleware != nil {
		api.Use(hm.authMiddleware.AuthMiddleware())
	} else {
		hm.logger.Warn("API routes are not authenticated")
	}

	exporter := hm.serviceManager.Export()

	students := api.Group("/students")
	{
		students.POST("", hm.studentHandler.CreateStudent)
		students.GET("", hm.studentHandler.ListStudents)
		students.GET("/export", hm.studentHandler.ExportStudents(exporter))
		students.PATCH("/:id/add-coin", hm.studentHandler.AddCoin)
	}

	rewardItems := api.Group("/rewardItems")
	{
		rewardItems.POST("", hm.rewardItemHandler.CreateRewardItem)
		rewardItems.GET("", hm.rewardItemHandler.ListRewardItems)
		rewardItems.GET("/export", hm.rewardItemHandler.ExportRewardItems(exporter))
		rewardItems.GET("/:id", hm.rewardItemHandler.GetRewardItem)
		rewardItems.PATCH("/:id", hm.rewardItemHandler.UpdateRewardItem)
		rewardItems.DELETE("/:id", hm.rewardItemHandler.DeleteRewardItem)
	}

	api.GET("/dashboard/stats", hm.dashboardHandler.GetDashboardStats)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			utils.FromContext(c, hm.logger).Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"service":   "coin-admin-service",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "coin-admin-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
