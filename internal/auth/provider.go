package auth

import (
	"context"
	"errors"
	"time"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// ErrAuthentication covers bad credentials and an unreachable identity provider
var ErrAuthentication = errors.New("authentication failed")

// ErrProviderUnavailable marks provider failures that say nothing about the credentials
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// Error is an authentication failure with a message safe to show on the form
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrAuthentication, e.Cause}
	}
	return []error{ErrAuthentication}
}

// NewError builds an authentication error with a user-facing message
func NewError(message string, cause error) error {
	return &Error{Message: message, Cause: cause}
}

// Message returns the user-facing text of an authentication error
func Message(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return "Authentication failed"
}

// Identity is what the provider returns for a successful sign-in
type Identity struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
}

// IdentityProvider is the external identity service
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	// VerifyToken returns the user an access token belongs to
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}
