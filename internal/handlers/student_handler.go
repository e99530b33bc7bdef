package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// CreateStudent registers a new student
// @Summary Create student
// @Description Register a student. Age and coins are optional and parsed leniently.
// @Tags students
// @Accept json
// @Produce json
// @Param student body models.StudentCreateRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse "Missing or invalid fields"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	h.LogRequest(c, "Creating student")

	var req models.StudentCreateRequest
	if !h.bindJSON(c, &req, "First name, last name, and belt are required") {
		return
	}

	student, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create student")
		return
	}

	c.JSON(http.StatusCreated, student)
}

// ListStudents returns every student
// @Summary List students
// @Description List all students, newest first
// @Tags students
// @Produce json
// @Success 200 {array} models.Student
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.service.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to fetch students")
		return
	}

	c.JSON(http.StatusOK, students)
}

// AddCoin awards one coin to a student
// @Summary Add coin
// @Description Increment the coin balance of a student by one. Every call awards again.
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} ErrorResponse "Student not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /students/{id}/add-coin [patch]
func (h *StudentHandler) AddCoin(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Adding coin", "student_id", id)

	student, err := h.service.AddCoin(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to add coin to student")
		return
	}

	c.JSON(http.StatusOK, student)
}

// ExportStudents downloads the roster as a spreadsheet
// @Summary Export students
// @Tags students
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /students/export [get]
func (h *StudentHandler) ExportStudents(exporter services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.LogRequest(c, "Exporting students")
		writeWorkbook(c, &h.BaseHandler, "students.xlsx", "Failed to export students", exporter.ExportStudents)
	}
}
