package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/client"
	"github.com/codeninja-coin/admin-service/internal/media"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

const msgUploadFailed = "Failed to upload image"

// maxFormSize leaves room for the text fields next to the largest image
const maxFormSize = media.MaxImageSize + 1<<20

func (h *Handler) RewardItems(c *gin.Context) {
	page := rewardItemsPage{
		pageData: pageData{Title: "All Reward Items", User: currentState(c).User, Flash: h.popFlash(c)},
		Query:    c.Query("q"),
	}

	items, err := h.api.ListRewardItems(c.Request.Context(), accessToken(c))
	if err != nil {
		utils.FromContext(c, h.logger).Warn("Failed to load reward items", "error", err)
		page.Error = client.Message(err, "Failed to fetch reward items")
		c.HTML(statusOf(err), "rewardItems", page)
		return
	}

	page.Items = FilterRewardItems(items, page.Query)
	c.HTML(http.StatusOK, "rewardItems", page)
}

func (h *Handler) AddRewardItemPage(c *gin.Context) {
	c.HTML(http.StatusOK, "addrewardItem", rewardItemFormPage{
		pageData: pageData{Title: "Add New Reward Item", User: currentState(c).User},
	})
}

// AddRewardItem uploads the optional image first; the item is only created
// once the image is stored
func (h *Handler) AddRewardItem(c *gin.Context) {
	page := rewardItemFormPage{
		pageData: pageData{Title: "Add New Reward Item", User: currentState(c).User},
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)
	imageURL, status, msg := h.uploadFormImage(c)
	page.Form = readRewardItemForm(c)
	if msg != "" {
		page.Error = msg
		c.HTML(status, "addrewardItem", page)
		return
	}

	req := &models.RewardItemCreateRequest{
		Title: page.Form.Title,
		Price: formInt(page.Form.Price),
		Stock: formInt(page.Form.Stock),
	}
	if page.Form.Description != "" {
		req.Description = &page.Form.Description
	}
	if imageURL != "" {
		req.ImageURL = &imageURL
	}

	if _, err := h.api.CreateRewardItem(c.Request.Context(), accessToken(c), req); err != nil {
		utils.FromContext(c, h.logger).Info("Failed to create reward item", "error", err)
		page.Error = client.Message(err, "Failed to create reward item")
		c.HTML(statusOf(err), "addrewardItem", page)
		return
	}

	page.Form = rewardItemForm{}
	page.Notice = "Reward item created successfully!"
	page.RedirectTo = "/rewardItems"
	c.HTML(http.StatusOK, "addrewardItem", page)
}

func (h *Handler) EditRewardItemPage(c *gin.Context) {
	page := rewardItemFormPage{
		pageData: pageData{Title: "Edit Reward Item", User: currentState(c).User},
		ID:       c.Param("id"),
	}

	item, err := h.api.GetRewardItem(c.Request.Context(), accessToken(c), page.ID)
	if err != nil {
		if !client.IsNotFound(err) {
			utils.FromContext(c, h.logger).Warn("Failed to load reward item", "error", err, "reward_item_id", page.ID)
		}
		page.Error = client.Message(err, "Failed to fetch reward item")
		page.LoadFailed = true
		c.HTML(statusOf(err), "edit", page)
		return
	}

	page.Form = formFromRewardItem(item)
	c.HTML(http.StatusOK, "edit", page)
}

func (h *Handler) EditRewardItem(c *gin.Context) {
	page := rewardItemFormPage{
		pageData: pageData{Title: "Edit Reward Item", User: currentState(c).User},
		ID:       c.Param("id"),
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)
	imageURL, status, msg := h.uploadFormImage(c)
	page.Form = readRewardItemForm(c)
	page.Form.ImageURL = c.PostForm("currentImageUrl")
	if msg != "" {
		page.Error = msg
		c.HTML(status, "edit", page)
		return
	}

	req := &models.RewardItemUpdateRequest{
		Title: models.StringOf(page.Form.Title),
		Price: formInt(page.Form.Price),
		Stock: formInt(page.Form.Stock),
	}
	if page.Form.Description == "" {
		req.Description = models.NullString()
	} else {
		req.Description = models.StringOf(page.Form.Description)
	}
	switch {
	case imageURL != "":
		req.ImageURL = models.StringOf(imageURL)
	case page.Form.RemoveImage:
		req.ImageURL = models.NullString()
	}
	// a cleared required field is sent as such so the API rejects it
	if strings.TrimSpace(page.Form.Price) == "" {
		req.Price = models.OptionalInt{Set: true, Null: true}
	}

	if _, err := h.api.UpdateRewardItem(c.Request.Context(), accessToken(c), page.ID, req); err != nil {
		utils.FromContext(c, h.logger).Info("Failed to update reward item", "error", err, "reward_item_id", page.ID)
		page.Error = client.Message(err, "Failed to update reward item")
		c.HTML(statusOf(err), "edit", page)
		return
	}

	h.setFlash(c, flashSuccess, "Reward item updated successfully")
	redirect(c, "/rewardItems")
}

func (h *Handler) DeleteRewardItemPage(c *gin.Context) {
	page := deletePage{
		pageData: pageData{Title: "Delete Reward Item", User: currentState(c).User},
	}

	item, err := h.api.GetRewardItem(c.Request.Context(), accessToken(c), c.Param("id"))
	if err != nil {
		if !client.IsNotFound(err) {
			utils.FromContext(c, h.logger).Warn("Failed to load reward item", "error", err, "reward_item_id", c.Param("id"))
		}
		page.Error = client.Message(err, "Failed to fetch reward item")
		c.HTML(statusOf(err), "delete", page)
		return
	}

	page.Item = item
	c.HTML(http.StatusOK, "delete", page)
}

func (h *Handler) DeleteRewardItem(c *gin.Context) {
	if err := h.api.DeleteRewardItem(c.Request.Context(), accessToken(c), c.Param("id")); err != nil {
		utils.FromContext(c, h.logger).Warn("Failed to delete reward item", "error", err, "reward_item_id", c.Param("id"))
		h.setFlash(c, flashError, client.Message(err, "Failed to delete reward item"))
		redirect(c, "/rewardItems")
		return
	}

	h.setFlash(c, flashSuccess, "Reward item deleted successfully")
	redirect(c, "/rewardItems")
}

// uploadFormImage validates and uploads the optional "image" file. It
// returns the stored URL, or a status and message for the form on failure.
func (h *Handler) uploadFormImage(c *gin.Context) (string, int, string) {
	if c.Request.ContentLength > maxFormSize {
		return "", http.StatusRequestEntityTooLarge, media.MessageTooLarge
	}

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return "", http.StatusRequestEntityTooLarge, media.MessageTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return "", 0, ""
		default:
			utils.FromContext(c, h.logger).Warn("Failed to read upload", "error", err)
			return "", http.StatusBadRequest, msgUploadFailed
		}
	}

	img, err := media.ReadImage(fh)
	if err != nil {
		var imgErr *media.ImageError
		if errors.As(err, &imgErr) {
			return "", http.StatusBadRequest, imgErr.Message
		}
		utils.FromContext(c, h.logger).Warn("Failed to read image", "error", err)
		return "", http.StatusBadRequest, msgUploadFailed
	}

	if h.uploader == nil {
		return "", http.StatusBadGateway, msgUploadFailed
	}
	url, err := h.uploader.Upload(c.Request.Context(), img)
	if err != nil {
		utils.FromContext(c, h.logger).Error("Image upload failed", "error", err)
		return "", http.StatusBadGateway, msgUploadFailed
	}
	return url, 0, ""
}

func readRewardItemForm(c *gin.Context) rewardItemForm {
	return rewardItemForm{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
		Stock:       c.PostForm("stock"),
		RemoveImage: c.PostForm("removeImage") == "on",
	}
}

func formFromRewardItem(item *models.RewardItem) rewardItemForm {
	form := rewardItemForm{
		Title: item.Title,
		Price: strconv.Itoa(item.Price),
		Stock: strconv.Itoa(item.Stock),
	}
	if item.Description != nil {
		form.Description = *item.Description
	}
	if item.ImageURL != nil {
		form.ImageURL = *item.ImageURL
	}
	return form
}
