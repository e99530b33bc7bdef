package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin/render"

	"github.com/codeninja-coin/admin-service/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login", "signup", "dashboard", "loading",
	"allStudents", "addStudent",
	"rewardItems", "addrewardItem", "edit", "delete",
}

var templateFuncs = template.FuncMap{
	"coins": func(n int) string {
		if n == 1 {
			return "1 coin"
		}
		return fmt.Sprintf("%d coins", n)
	},
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"studentKey": func(s *models.Student) string {
		return strings.ToLower(s.FirstName + " " + s.LastName)
	},
	"lower": strings.ToLower,
	"belts": func() []models.Belt { return models.AllBelts },
}

// renderer pairs every page with the shared layout
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.pages[name], Name: "layout", Data: data}
}

// pageData is shared by every page
type pageData struct {
	Title string
	User  *models.User
	Flash flash
	// Error and Notice are inline messages of the current render
	Error  string
	Notice string
	// RedirectTo makes the page follow up with a delayed redirect
	RedirectTo string
}

type loadingPage struct {
	pageData
	Target string
}

type authPage struct {
	pageData
	Email string
}

type dashboardPage struct {
	pageData
	Stats      *models.DashboardStats
	StatsError string
}

type studentsPage struct {
	pageData
	Students []*models.Student
	Total    int
	Query    string
	Confirm  *models.Student
}

type studentForm struct {
	FirstName string
	LastName  string
	Age       string
	Belt      string
	Coins     string
}

type addStudentPage struct {
	pageData
	Form studentForm
}

type rewardItemsPage struct {
	pageData
	Items []*models.RewardItem
	Query string
}

type rewardItemForm struct {
	Title       string
	Description string
	Price       string
	Stock       string
	ImageURL    string
	RemoveImage bool
}

type rewardItemFormPage struct {
	pageData
	ID   string
	Form rewardItemForm
	// LoadFailed hides the edit form when the item could not be fetched
	LoadFailed bool
}

type deletePage struct {
	pageData
	Item *models.RewardItem
}
