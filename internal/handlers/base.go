package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the logging helpers shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs the start of a request with the request scoped logger,
// naming the authenticated caller when there is one
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "path", c.FullPath())
	if user, err := GetUserFromContext(c); err == nil {
		args = append(args, "user_id", user.ID)
	}
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// LogError logs err with the request scoped logger
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "path", c.FullPath())
	utils.FromContext(c, h.logger).Error(msg, args...)
}

// handleServiceError maps service errors onto status codes. Unexpected errors
// are logged and answered with the generic failure message; their cause never
// reaches the caller.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error, failureMessage string) {
	var validationErr *services.RequestValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationErr.Message,
			Details: validationErr.Fields,
		})
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
		})
	case errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Student not found",
		})
	case errors.Is(err, services.ErrRewardItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Reward item not found",
		})
	case services.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: failureMessage,
		})
	}
}

// bindJSON decodes the body, answering 400 with message when it is not valid JSON
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.LogRequest(c, "Rejected malformed body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: message,
			Details: "Request body must be valid JSON",
		})
		return false
	}
	return true
}
