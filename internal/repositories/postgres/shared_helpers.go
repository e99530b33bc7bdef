package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/codeninja-coin/admin-service/internal/repositories"
)

const newestFirst = "created_at DESC, id DESC"

// translateError maps gorm's not-found error onto repositories.ErrNotFound
func translateError(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// requireAffected turns a write that matched no rows into ErrNotFound
func requireAffected(result *gorm.DB, action string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to %s: %w", action, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
