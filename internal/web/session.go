package web

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeninja-coin/admin-service/internal/auth"
)

const (
	stateContextKey = "session_state"
	flashCookieName = "cnc_flash"
)

type cachedState struct {
	state   auth.State
	expires time.Time
}

// stateCache keeps resolved, authenticated session state per cookie value
type stateCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]cachedState
	lastSweep time.Time
	now       func() time.Time
}

func newStateCache(ttl time.Duration) *stateCache {
	return &stateCache{
		ttl:     ttl,
		entries: make(map[string]cachedState),
		now:     time.Now,
	}
}

func (s *stateCache) get(cookie string) (auth.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[cookie]
	if !ok {
		return auth.State{}, false
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, cookie)
		return auth.State{}, false
	}
	return entry.state, true
}

// put only keeps authenticated state; loading or anonymous state is always re-resolved
func (s *stateCache) put(cookie string, state auth.State) {
	if !state.Authenticated() || state.Session == nil {
		return
	}

	now := s.now()
	expires := now.Add(s.ttl)
	if state.Session.ExpiresAt.Before(expires) {
		expires = state.Session.ExpiresAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cookie] = cachedState{state: state, expires: expires}

	// cookies that are never presented again are dropped here, at most once per ttl
	if now.Sub(s.lastSweep) >= s.ttl {
		s.lastSweep = now
		for key, entry := range s.entries {
			if !now.Before(entry.expires) {
				delete(s.entries, key)
			}
		}
	}
}

func (s *stateCache) evictCookie(cookie string) {
	s.mu.Lock()
	delete(s.entries, cookie)
	s.mu.Unlock()
}

func (s *stateCache) evictSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cookie, entry := range s.entries {
		if entry.state.Session != nil && entry.state.Session.ID == sessionID {
			delete(s.entries, cookie)
		}
	}
}

func (h *Handler) resolveState(c *gin.Context) (string, auth.State) {
	cookie, err := c.Cookie(h.cookieName)
	if err != nil || cookie == "" {
		return "", auth.State{}
	}

	if state, ok := h.states.get(cookie); ok {
		return cookie, state
	}

	state := h.sessions.Initialize(c.Request.Context(), cookie)
	h.states.put(cookie, state)
	return cookie, state
}

// RequireSession renders a placeholder while the session is still loading
// and sends anonymous browsers to the login page
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, state := h.resolveState(c)

		if state.Loading {
			c.Header("Retry-After", "2")
			c.HTML(http.StatusServiceUnavailable, "loading", loadingPage{
				pageData: pageData{Title: "Loading"},
				Target:   c.Request.URL.RequestURI(),
			})
			c.Abort()
			return
		}

		if !state.Authenticated() {
			redirect(c, "/login")
			c.Abort()
			return
		}

		c.Set(stateContextKey, state)
		c.Next()
	}
}

// currentState returns the state RequireSession resolved for the request
func currentState(c *gin.Context) auth.State {
	if v, ok := c.Get(stateContextKey); ok {
		if state, ok := v.(auth.State); ok {
			return state
		}
	}
	return auth.State{}
}

func accessToken(c *gin.Context) string {
	if state := currentState(c); state.Session != nil {
		return state.Session.AccessToken
	}
	return ""
}

func (h *Handler) setSessionCookie(c *gin.Context, session *auth.Session) error {
	value, err := h.sessions.CookieValue(session)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.cookieSecure, true)
	return nil
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
}

// ===== FLASH NOTICES =====

const (
	flashSuccess = "success"
	flashError   = "error"
)

type flash struct {
	Kind    string
	Message string
}

// setFlash stores a notice for the next page render only
func (h *Handler) setFlash(c *gin.Context, kind, message string) {
	value := url.Values{"kind": {kind}, "msg": {message}}.Encode()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, value, 60, "/", "", h.cookieSecure, true)
}

func (h *Handler) popFlash(c *gin.Context) flash {
	value, err := c.Cookie(flashCookieName)
	if err != nil || value == "" {
		return flash{}
	}
	c.SetCookie(flashCookieName, "", -1, "/", "", h.cookieSecure, true)

	values, err := url.ParseQuery(value)
	if err != nil {
		return flash{}
	}
	return flash{Kind: values.Get("kind"), Message: values.Get("msg")}
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
