package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

type RewardItemHandler struct {
	BaseHandler
	service services.RewardItemService
}

func NewRewardItemHandler(service services.RewardItemService, logger utils.Logger) *RewardItemHandler {
	return &RewardItemHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== REWARD ITEM ENDPOINTS =====

// CreateRewardItem adds an item to the catalog
// @Summary Create reward item
// @Tags reward-items
// @Accept json
// @Produce json
// @Param item body models.RewardItemCreateRequest true "Reward item data"
// @Success 201 {object} models.RewardItem
// @Failure 400 {object} ErrorResponse "Missing title or invalid price"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems [post]
func (h *RewardItemHandler) CreateRewardItem(c *gin.Context) {
	h.LogRequest(c, "Creating reward item")

	var req models.RewardItemCreateRequest
	if !h.bindJSON(c, &req, "Title and price are required") {
		return
	}

	item, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create reward item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListRewardItems returns the catalog
// @Summary List reward items
// @Tags reward-items
// @Produce json
// @Success 200 {array} models.RewardItem
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems [get]
func (h *RewardItemHandler) ListRewardItems(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to fetch reward items")
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetRewardItem returns one item
// @Summary Get reward item
// @Tags reward-items
// @Produce json
// @Param id path string true "Reward item ID"
// @Success 200 {object} models.RewardItem
// @Failure 404 {object} ErrorResponse "Reward item not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems/{id} [get]
func (h *RewardItemHandler) GetRewardItem(c *gin.Context) {
	item, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to fetch reward item")
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateRewardItem changes the provided fields of an item
// @Summary Update reward item
// @Description Any subset of title, description, imageUrl, price and stock. An explicit null clears description or imageUrl.
// @Tags reward-items
// @Accept json
// @Produce json
// @Param id path string true "Reward item ID"
// @Param item body models.RewardItemUpdateRequest true "Fields to change"
// @Success 200 {object} models.RewardItem
// @Failure 400 {object} ErrorResponse "Invalid fields"
// @Failure 404 {object} ErrorResponse "Reward item not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems/{id} [patch]
func (h *RewardItemHandler) UpdateRewardItem(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Updating reward item", "reward_item_id", id)

	var req models.RewardItemUpdateRequest
	if !h.bindJSON(c, &req, "Invalid reward item data") {
		return
	}

	item, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to update reward item")
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteRewardItem removes an item permanently
// @Summary Delete reward item
// @Tags reward-items
// @Produce json
// @Param id path string true "Reward item ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} ErrorResponse "Reward item not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems/{id} [delete]
func (h *RewardItemHandler) DeleteRewardItem(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting reward item", "reward_item_id", id)

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err, "Failed to delete reward item")
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Reward item deleted successfully"})
}

// ExportRewardItems downloads the catalog as a spreadsheet
// @Summary Export reward items
// @Tags reward-items
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /rewardItems/export [get]
func (h *RewardItemHandler) ExportRewardItems(exporter services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.LogRequest(c, "Exporting reward items")
		writeWorkbook(c, &h.BaseHandler, "reward-items.xlsx", "Failed to export reward items", exporter.ExportRewardItems)
	}
}
