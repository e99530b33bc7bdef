package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/client"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

// AllStudents lists students. ?q= narrows the fetched list by name and
// ?confirm=<id> opens the add coin confirmation for that student.
func (h *Handler) AllStudents(c *gin.Context) {
	page := studentsPage{
		pageData: pageData{Title: "All Students", User: currentState(c).User, Flash: h.popFlash(c)},
		Query:    c.Query("q"),
	}

	students, err := h.api.ListStudents(c.Request.Context(), accessToken(c))
	if err != nil {
		utils.FromContext(c, h.logger).Warn("Failed to load students", "error", err)
		page.Error = client.Message(err, "Failed to fetch students")
		c.HTML(statusOf(err), "allStudents", page)
		return
	}

	page.Total = len(students)
	page.Students = FilterStudents(students, page.Query)

	if id := c.Query("confirm"); id != "" {
		for _, s := range students {
			if s.ID == id {
				page.Confirm = s
				break
			}
		}
	}

	c.HTML(http.StatusOK, "allStudents", page)
}

// AddCoin awards one coin and returns to the list with a notice
func (h *Handler) AddCoin(c *gin.Context) {
	student, err := h.api.AddCoin(c.Request.Context(), accessToken(c), c.Param("id"))
	if err != nil {
		utils.FromContext(c, h.logger).Warn("Failed to add coin", "error", err, "student_id", c.Param("id"))
		h.setFlash(c, flashError, client.Message(err, "Failed to add coin"))
		redirect(c, "/allStudents")
		return
	}

	h.setFlash(c, flashSuccess, "Successfully added coin to "+student.FirstName+" "+student.LastName)
	redirect(c, "/allStudents")
}

func (h *Handler) AddStudentPage(c *gin.Context) {
	c.HTML(http.StatusOK, "addStudent", addStudentPage{
		pageData: pageData{Title: "Add New Student", User: currentState(c).User},
		Form:     studentForm{Belt: string(models.BeltWhite), Coins: "0"},
	})
}

func (h *Handler) AddStudent(c *gin.Context) {
	form := studentForm{
		FirstName: c.PostForm("firstName"),
		LastName:  c.PostForm("lastName"),
		Age:       c.PostForm("age"),
		Belt:      c.PostForm("belt"),
		Coins:     c.PostForm("coins"),
	}
	page := addStudentPage{
		pageData: pageData{Title: "Add New Student", User: currentState(c).User},
		Form:     form,
	}

	_, err := h.api.CreateStudent(c.Request.Context(), accessToken(c), &models.StudentCreateRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Age:       formInt(form.Age),
		Belt:      models.Belt(form.Belt),
		Coins:     formInt(form.Coins),
	})
	if err != nil {
		utils.FromContext(c, h.logger).Info("Failed to add student", "error", err)
		page.Error = client.Message(err, "Failed to add student")
		c.HTML(statusOf(err), "addStudent", page)
		return
	}

	page.Form = studentForm{Belt: string(models.BeltWhite), Coins: "0"}
	page.Notice = "Student added successfully!"
	page.RedirectTo = "/allStudents"
	c.HTML(http.StatusOK, "addStudent", page)
}

// formInt carries a form value to the API as the numeric string it was
// typed as; an empty field is left out of the request
func formInt(v string) models.OptionalInt {
	var o models.OptionalInt
	if strings.TrimSpace(v) == "" {
		return o
	}
	_ = o.UnmarshalJSON([]byte(strconv.Quote(v)))
	return o
}

// statusOf picks the page status for a failed API call
func statusOf(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
