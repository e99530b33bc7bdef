package casdoor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userClient is the part of the Casdoor SDK the repository uses
type userClient interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userClient
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	return newUserCasdoor(newSDKClient(config), redisClient)
}

func newUserCasdoor(client userClient, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheManager(redisClient).User,
	}
}

func newSDKClient(config CasdoorConfig) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
}

// convertCasdoorUserToModel converts Casdoor user to internal model
func convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}

	user := &models.User{
		ID:            casdoorUser.Id,
		Name:          casdoorUser.Name,
		Email:         casdoorUser.Email,
		DisplayName:   casdoorUser.DisplayName,
		EmailVerified: casdoorUser.EmailVerified,
		IsAdmin:       casdoorUser.IsAdmin,
		CreatedAt:     createdAt,
	}
	if casdoorUser.Avatar != "" {
		avatar := casdoorUser.Avatar
		user.AvatarURL = &avatar
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Name
	}
	return user
}

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	return u.lookup(ctx, "id:"+id, func() (*casdoorsdk.User, error) {
		return u.client.GetUserByUserId(id)
	})
}

func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.lookup(ctx, "email:"+email, func() (*casdoorsdk.User, error) {
		return u.client.GetUserByEmail(email)
	})
}

func (u *UserCasdoor) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (u *UserCasdoor) lookup(ctx context.Context, cacheKey string, fetch func() (*casdoorsdk.User, error)) (*models.User, error) {
	var user models.User
	if err := u.cache.Get(ctx, cacheKey, &user); err == nil {
		return &user, nil
	}

	casdoorUser, err := fetch()
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}

	found := convertCasdoorUserToModel(casdoorUser)
	u.remember(ctx, found)
	return found, nil
}

func (u *UserCasdoor) remember(ctx context.Context, user *models.User) {
	for _, key := range []string{"id:" + user.ID, "email:" + user.Email} {
		if err := u.cache.Set(ctx, key, user, cache.UserCacheConfig.TTL); err != nil {
			// cache failures only cost a provider round trip
			continue
		}
	}
}
