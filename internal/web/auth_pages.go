package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/auth"
	"github.com/codeninja-coin/admin-service/internal/client"
	"github.com/codeninja-coin/admin-service/internal/utils"
)

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", authPage{pageData: pageData{Title: "Login", Flash: h.popFlash(c)}})
}

func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup", authPage{pageData: pageData{Title: "Sign Up"}})
}

func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	session, err := h.sessions.SignIn(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		utils.FromContext(c, h.logger).Info("Sign in failed", "error", err)
		c.HTML(http.StatusUnauthorized, "login", authPage{
			pageData: pageData{Title: "Login", Error: auth.Message(err)},
			Email:    email,
		})
		return
	}

	h.startSession(c, session, "login")
}

func (h *Handler) Signup(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	session, err := h.sessions.SignUp(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		utils.FromContext(c, h.logger).Info("Sign up failed", "error", err)
		c.HTML(http.StatusBadRequest, "signup", authPage{
			pageData: pageData{Title: "Sign Up", Error: auth.Message(err)},
			Email:    email,
		})
		return
	}

	h.startSession(c, session, "signup")
}

func (h *Handler) startSession(c *gin.Context, session *auth.Session, page string) {
	if err := h.setSessionCookie(c, session); err != nil {
		utils.FromContext(c, h.logger).Error("Failed to sign session cookie", "error", err)
		title := "Login"
		if page == "signup" {
			title = "Sign Up"
		}
		c.HTML(http.StatusInternalServerError, page, authPage{
			pageData: pageData{Title: title, Error: "Could not start a session, please try again"},
		})
		return
	}
	redirect(c, "/dashboard")
}

// Logout never fails from the browser's point of view
func (h *Handler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(h.cookieName); err == nil && cookie != "" {
		h.sessions.SignOut(c.Request.Context(), cookie)
		h.states.evictCookie(cookie)
	}
	h.clearSessionCookie(c)
	redirect(c, "/login")
}

func (h *Handler) Dashboard(c *gin.Context) {
	state := currentState(c)
	page := dashboardPage{
		pageData: pageData{Title: "Dashboard", User: state.User, Flash: h.popFlash(c)},
	}

	stats, err := h.api.DashboardStats(c.Request.Context(), accessToken(c))
	if err != nil {
		utils.FromContext(c, h.logger).Warn("Failed to load dashboard stats", "error", err)
		page.StatsError = client.Message(err, "Failed to fetch dashboard stats")
	} else {
		page.Stats = stats
	}

	c.HTML(http.StatusOK, "dashboard", page)
}
