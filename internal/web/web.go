// Package web serves the session-gated administration pages. Every page
// talks to the JSON API through the typed client with the session's token.
package web

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/auth"
	"github.com/codeninja-coin/admin-service/internal/handlers"
	"github.com/codeninja-coin/admin-service/internal/media"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

// Sessions is the authentication context the pages depend on
type Sessions interface {
	Initialize(ctx context.Context, cookieValue string) auth.State
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, cookieValue string)
	CookieValue(session *auth.Session) (string, error)
	Subscribe(ctx context.Context) (<-chan auth.SessionEvent, func())
}

// API is the part of the JSON API the pages call
type API interface {
	ListStudents(ctx context.Context, token string) ([]*models.Student, error)
	CreateStudent(ctx context.Context, token string, req *models.StudentCreateRequest) (*models.Student, error)
	AddCoin(ctx context.Context, token, id string) (*models.Student, error)
	ListRewardItems(ctx context.Context, token string) ([]*models.RewardItem, error)
	GetRewardItem(ctx context.Context, token, id string) (*models.RewardItem, error)
	CreateRewardItem(ctx context.Context, token string, req *models.RewardItemCreateRequest) (*models.RewardItem, error)
	UpdateRewardItem(ctx context.Context, token, id string, req *models.RewardItemUpdateRequest) (*models.RewardItem, error)
	DeleteRewardItem(ctx context.Context, token, id string) error
	DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error)
}

type Config struct {
	Sessions Sessions
	API      API
	Uploader media.Uploader
	// AuthLimiter throttles sign-in and sign-up attempts per client IP
	AuthLimiter *handlers.RateLimiter
	Logger      utils.Logger

	CookieName   string
	CookieSecure bool
	// StateTTL bounds how long a resolved session is reused without asking
	// the session store again
	StateTTL time.Duration
}

type Handler struct {
	sessions    Sessions
	api         API
	uploader    media.Uploader
	authLimiter *handlers.RateLimiter
	logger      utils.Logger
	renderer    *renderer
	states      *stateCache

	cookieName   string
	cookieSecure bool
}

func New(cfg Config) (*Handler, error) {
	if cfg.Sessions == nil || cfg.API == nil {
		return nil, errors.New("web: sessions and api are required")
	}

	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "cnc_session"
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 30 * time.Second
	}
	if cfg.AuthLimiter == nil {
		cfg.AuthLimiter = handlers.NewRateLimiter(10)
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewSlogLogger(nil)
	}

	return &Handler{
		sessions:     cfg.Sessions,
		api:          cfg.API,
		uploader:     cfg.Uploader,
		authLimiter:  cfg.AuthLimiter,
		logger:       cfg.Logger,
		renderer:     r,
		states:       newStateCache(cfg.StateTTL),
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
	}, nil
}

// Register mounts the pages and installs the page renderer
func (h *Handler) Register(router *gin.Engine) {
	router.HTMLRender = h.renderer

	router.GET("/", func(c *gin.Context) { redirect(c, "/dashboard") })

	router.GET("/login", h.LoginPage)
	router.POST("/login", h.authLimiter.Middleware(), h.Login)
	router.GET("/signup", h.SignupPage)
	router.POST("/signup", h.authLimiter.Middleware(), h.Signup)
	router.POST("/logout", h.Logout)

	pages := router.Group("", h.RequireSession())
	{
		pages.GET("/dashboard", h.Dashboard)

		pages.GET("/allStudents", h.AllStudents)
		pages.POST("/allStudents/:id/add-coin", h.AddCoin)
		pages.GET("/addStudent", h.AddStudentPage)
		pages.POST("/addStudent", h.AddStudent)

		pages.GET("/rewardItems", h.RewardItems)
		pages.GET("/addrewardItem", h.AddRewardItemPage)
		pages.POST("/addrewardItem", h.AddRewardItem)
		pages.GET("/rewardItems/:id/edit", h.EditRewardItemPage)
		pages.POST("/rewardItems/:id/edit", h.EditRewardItem)
		pages.GET("/rewardItems/:id/delete", h.DeleteRewardItemPage)
		pages.POST("/rewardItems/:id/delete", h.DeleteRewardItem)
	}
}

// Run evicts cached session state when sessions end, until ctx is done
func (h *Handler) Run(ctx context.Context) {
	changes, unsubscribe := h.sessions.Subscribe(ctx)
	defer unsubscribe()

	for event := range changes {
		switch event.Type {
		case auth.SessionSignedOut, auth.SessionExpired:
			h.states.evictSession(event.SessionID)
			h.logger.Debug("Evicted session state", "session_id", event.SessionID, "reason", event.Type)
		}
	}
}
