package casdoor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/codeninja-coin/admin-service/internal/auth"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

// identityClient is the part of the Casdoor SDK the provider uses
type identityClient interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	AddUser(user *casdoorsdk.User) (bool, error)
}

// IdentityCasdoor signs administrators in against Casdoor
type IdentityCasdoor struct {
	client     identityClient
	users      repositories.UserRepository
	oauth      *oauth2.Config
	httpClient *http.Client
	config     CasdoorConfig
}

func NewIdentityCasdoor(config CasdoorConfig, users repositories.UserRepository, httpClient *http.Client) *IdentityCasdoor {
	return newIdentityCasdoor(newSDKClient(config), config, users, httpClient)
}

func newIdentityCasdoor(client identityClient, config CasdoorConfig, users repositories.UserRepository, httpClient *http.Client) *IdentityCasdoor {
	endpoint := strings.TrimRight(config.Endpoint, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &IdentityCasdoor{
		client: client,
		users:  users,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/login/oauth/authorize",
				TokenURL:  endpoint + "/api/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"read"},
		},
		httpClient: httpClient,
		config:     config,
	}
}

// SignIn runs the password grant for the account registered under email
func (p *IdentityCasdoor) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, auth.NewError("Invalid email or password", err)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrProviderUnavailable, err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.PasswordCredentialsToken(ctx, user.Name, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, auth.NewError("Invalid email or password", err)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrProviderUnavailable, err)
	}

	verified, err := p.VerifyToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &auth.Identity{
		User:        verified,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}, nil
}

// SignUp registers a new account in the configured organization and signs it in
func (p *IdentityCasdoor) SignUp(ctx context.Context, email, password string) (*auth.Identity, error) {
	exists, err := p.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrProviderUnavailable, err)
	}
	if exists {
		return nil, auth.NewError("An account with this email already exists", nil)
	}

	local := strings.SplitN(email, "@", 2)[0]
	user := &casdoorsdk.User{
		Owner:             p.config.OrganizationName,
		Name:              local + "-" + uuid.NewString()[:8],
		CreatedTime:       time.Now().UTC().Format(time.RFC3339),
		Type:              "normal-user",
		Password:          password,
		DisplayName:       local,
		Email:             email,
		SignupApplication: p.config.ApplicationName,
	}

	ok, err := p.client.AddUser(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrProviderUnavailable, err)
	}
	if !ok {
		return nil, auth.NewError("Could not create the account", nil)
	}

	return p.SignIn(ctx, email, password)
}

// VerifyToken checks the token signature against the application certificate
func (p *IdentityCasdoor) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		return nil, auth.NewError("Your session has expired, please sign in again", err)
	}

	user := convertCasdoorUserToModel(&claims.User)
	if user.ID == "" {
		return nil, auth.NewError("Your session has expired, please sign in again", nil)
	}
	return user, nil
}
