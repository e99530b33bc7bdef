package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// ErrNotFound is returned when no row matches the given id
var ErrNotFound = errors.New("record not found")

// StudentRepository stores students. Students are never deleted and their
// coin balance only moves through IncrementCoins.
type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error)
	// List returns every student, newest first
	List(ctx context.Context, tx *gorm.DB) ([]*models.Student, error)
	// IncrementCoins adds delta in a single UPDATE statement
	IncrementCoins(ctx context.Context, tx *gorm.DB, id string, delta int) error

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	SumCoins(ctx context.Context, tx *gorm.DB) (int64, error)
}

// RewardItemRepository stores the reward catalog
type RewardItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *models.RewardItem) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.RewardItem, error)
	// List returns every reward item, newest first
	List(ctx context.Context, tx *gorm.DB) ([]*models.RewardItem, error)
	// Update writes only the given columns
	Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountOutOfStock(ctx context.Context, tx *gorm.DB) (int64, error)
}

// ActivityRepository stores the dashboard activity feed
type ActivityRepository interface {
	// Append ignores entries whose EventID was already stored
	Append(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
	Recent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.ActivityLog, error)
}
