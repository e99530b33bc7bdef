package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/export"
	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetDashboardStats returns the dashboard counters and the recent activity feed
// @Summary Get dashboard statistics
// @Description Totals of students, coins and reward items plus the latest recorded actions
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to fetch dashboard stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// writeWorkbook renders the whole workbook before sending headers so a
// failure can still be answered with a JSON error
func writeWorkbook(c *gin.Context, h *BaseHandler, filename, failureMessage string, render func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := render(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err, failureMessage)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
