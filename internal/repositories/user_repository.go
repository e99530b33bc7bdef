package repositories

import (
	"context"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// UserRepository reads administrator accounts from the identity provider.
// The service is not the owner of user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
