package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/utils"
	"github.com/codeninja-coin/admin-service/internal/validator"
)

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedUp  SessionEventType = "signed_up"
	SessionSignedOut SessionEventType = "signed_out"
	SessionExpired   SessionEventType = "expired"
)

const sessionEventPrefix = "session."

// SessionEvent notifies subscribers that a session changed
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"sessionId"`
	UserID    string           `json:"userId,omitempty"`
	Email     string           `json:"email,omitempty"`
	At        time.Time        `json:"at"`
}

// State is the authentication state of one browser. Loading means the
// session could not be resolved yet because the store or the provider did
// not answer; callers render a placeholder and try again.
type State struct {
	User    *models.User
	Session *Session
	Loading bool
}

func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

type SessionManagerConfig struct {
	Provider   IdentityProvider
	Store      Store
	Signer     *CookieSigner
	Publisher  events.EventPublisher
	Subscriber message.Subscriber
	Topic      string
	TTL        time.Duration
	Validator  *validator.Validator
	Logger     utils.Logger
}

// SessionManager owns the authentication state of every browser session
type SessionManager struct {
	provider   IdentityProvider
	store      Store
	signer     *CookieSigner
	publisher  events.EventPublisher
	subscriber message.Subscriber
	topic      string
	ttl        time.Duration
	validator  *validator.Validator
	logger     utils.Logger

	lookups singleflight.Group
	now     func() time.Time
}

func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}

	return &SessionManager{
		provider:   cfg.Provider,
		store:      cfg.Store,
		signer:     cfg.Signer,
		publisher:  cfg.Publisher,
		subscriber: cfg.Subscriber,
		topic:      cfg.Topic,
		ttl:        ttl,
		validator:  v,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Initialize resolves the state for a session cookie value. An empty or
// invalid cookie yields a loaded state without a user.
func (m *SessionManager) Initialize(ctx context.Context, cookieValue string) State {
	if cookieValue == "" {
		return State{}
	}

	sessionID, err := m.signer.Parse(cookieValue)
	if err != nil {
		m.logger.Debug("Ignoring invalid session cookie", "error", err)
		return State{}
	}

	result, _, _ := m.lookups.Do(sessionID, func() (interface{}, error) {
		return m.resolve(ctx, sessionID), nil
	})
	return result.(State)
}

func (m *SessionManager) resolve(ctx context.Context, sessionID string) State {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return State{}
		}
		m.logger.Warn("Session store unavailable", "error", err)
		return State{Loading: true}
	}

	if session.Expired(m.now()) {
		m.expire(ctx, session)
		return State{}
	}

	user, err := m.provider.VerifyToken(ctx, session.AccessToken)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			m.logger.Warn("Identity provider unavailable", "error", err)
			return State{Loading: true}
		}
		m.expire(ctx, session)
		return State{}
	}

	session.User = user
	return State{User: user, Session: session}
}

func (m *SessionManager) expire(ctx context.Context, session *Session) {
	if err := m.store.Delete(ctx, session.ID); err != nil {
		m.logger.Warn("Failed to delete expired session", "error", err, "session_id", session.ID)
	}
	m.notify(ctx, SessionExpired, session)
}

// SignIn verifies the credentials with the identity provider and opens a session
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := m.checkCredentials(email, password); err != nil {
		return nil, err
	}

	identity, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Info("Sign in failed", "email", email, "error", err)
		return nil, asAuthError(err, "Invalid email or password")
	}
	return m.open(ctx, identity, SessionSignedIn)
}

// SignUp creates an account with the identity provider and opens a session
func (m *SessionManager) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if err := m.checkCredentials(email, password); err != nil {
		return nil, err
	}

	identity, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		m.logger.Info("Sign up failed", "email", email, "error", err)
		return nil, asAuthError(err, "Could not create the account")
	}
	return m.open(ctx, identity, SessionSignedUp)
}

// SignOut ends the session. It never fails; problems are only logged.
func (m *SessionManager) SignOut(ctx context.Context, cookieValue string) {
	if cookieValue == "" {
		return
	}

	sessionID, err := m.signer.Parse(cookieValue)
	if err != nil {
		return
	}

	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		session = &Session{ID: sessionID}
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		m.logger.Warn("Failed to delete session on sign out", "error", err, "session_id", sessionID)
	}
	m.notify(ctx, SessionSignedOut, session)
}

// CookieValue signs the session id for the browser cookie
func (m *SessionManager) CookieValue(session *Session) (string, error) {
	return m.signer.Sign(session.ID, session.ExpiresAt)
}

// Subscribe streams session changes until ctx ends or unsubscribe is called
func (m *SessionManager) Subscribe(ctx context.Context) (<-chan SessionEvent, func()) {
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan SessionEvent, 16)

	if m.subscriber == nil {
		close(out)
		return out, cancel
	}

	messages, err := m.subscriber.Subscribe(subCtx, m.topic)
	if err != nil {
		m.logger.Error("Failed to subscribe to session events", "error", err)
		close(out)
		return out, cancel
	}

	go func() {
		defer close(out)
		for msg := range messages {
			msg.Ack()

			event, err := events.Decode(msg)
			if err != nil {
				m.logger.Warn("Dropping malformed session event", "error", err)
				continue
			}
			var sessionEvent SessionEvent
			if err := event.DecodeData(&sessionEvent); err != nil {
				m.logger.Warn("Dropping malformed session event", "error", err)
				continue
			}

			select {
			case out <- sessionEvent:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return out, cancel
}

func (m *SessionManager) checkCredentials(email, password string) error {
	creds := models.Credentials{Email: email, Password: password}
	if errs := m.validator.ValidateCredentials(&creds); len(errs) > 0 {
		if errs.Has("email") {
			return NewError("Please enter a valid email address", errs)
		}
		return NewError("Password must be at least 6 characters", errs)
	}
	return nil
}

func (m *SessionManager) open(ctx context.Context, identity *Identity, eventType SessionEventType) (*Session, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expiresAt) {
		expiresAt = identity.ExpiresAt
	}

	session := &Session{
		ID:          uuid.NewString(),
		User:        identity.User,
		AccessToken: identity.AccessToken,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}

	if err := m.store.Save(ctx, session); err != nil {
		return nil, NewError("Could not start a session, please try again", err)
	}

	m.notify(ctx, eventType, session)
	return session, nil
}

func (m *SessionManager) notify(ctx context.Context, eventType SessionEventType, session *Session) {
	if m.publisher == nil {
		return
	}

	data := SessionEvent{Type: eventType, SessionID: session.ID, At: m.now().UTC()}
	if session.User != nil {
		data.UserID = session.User.ID
		data.Email = session.User.Email
	}

	event, err := events.NewEvent(sessionEventPrefix+string(eventType), data)
	if err == nil {
		err = m.publisher.Publish(ctx, m.topic, event)
	}
	if err != nil {
		m.logger.Warn("Failed to publish session event", "error", err, "type", eventType)
	}
}

func asAuthError(err error, fallback string) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return err
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return NewError("The sign-in service is unavailable, please try again", err)
	}
	return NewError(fallback, err)
}
