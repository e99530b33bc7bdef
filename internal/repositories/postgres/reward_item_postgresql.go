package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

// Columns a reward item update may touch
var rewardItemColumns = map[string]bool{
	"title":       true,
	"description": true,
	"image_url":   true,
	"price":       true,
	"stock":       true,
}

type RewardItemPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRewardItemPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.RewardItemRepository {
	return &RewardItemPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *RewardItemPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *RewardItemPostgreSQL) Create(ctx context.Context, tx *gorm.DB, item *models.RewardItem) error {
	if item.Title == "" || item.Price < 1 {
		return fmt.Errorf("failed to create reward item: title and a positive price are required")
	}

	if err := r.getDB(tx).WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create reward item: %w", err)
	}

	cache.InvalidateRewardItemCache(ctx, r.cacheManager)
	return nil
}

// GetByID retrieves a reward item by ID with caching
func (r *RewardItemPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.RewardItem, error) {
	var item models.RewardItem

	err := r.cacheManager.RewardItem.CacheOrExecuteVersioned(ctx, "id:"+id, &item, cache.RewardItemCacheConfig.TTL, func() (interface{}, error) {
		var dbItem models.RewardItem
		if err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&dbItem).Error; err != nil {
			return nil, translateError(err, "get reward item")
		}
		return &dbItem, nil
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *RewardItemPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.RewardItem, error) {
	var items []*models.RewardItem

	err := r.cacheManager.RewardItem.CacheOrExecuteVersioned(ctx, "list:all", &items, cache.RewardItemCacheConfig.TTL, func() (interface{}, error) {
		dbItems := make([]*models.RewardItem, 0)
		if err := r.getDB(tx).WithContext(ctx).Order(newestFirst).Find(&dbItems).Error; err != nil {
			return nil, fmt.Errorf("failed to list reward items: %w", err)
		}
		return dbItems, nil
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []*models.RewardItem{}
	}
	return items, nil
}

func (r *RewardItemPostgreSQL) Update(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	columns := make(map[string]interface{}, len(updates)+1)
	for column, value := range updates {
		if !rewardItemColumns[column] {
			return fmt.Errorf("failed to update reward item: unknown column %q", column)
		}
		columns[column] = value
	}
	columns["updated_at"] = time.Now()

	result := r.getDB(tx).WithContext(ctx).
		Model(&models.RewardItem{}).
		Where("id = ?", id).
		UpdateColumns(columns)
	if err := requireAffected(result, "update reward item"); err != nil {
		return err
	}

	cache.InvalidateRewardItemCache(ctx, r.cacheManager)
	return nil
}

func (r *RewardItemPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := r.getDB(tx).WithContext(ctx).Where("id = ?", id).Delete(&models.RewardItem{})
	if err := requireAffected(result, "delete reward item"); err != nil {
		return err
	}

	cache.InvalidateRewardItemCache(ctx, r.cacheManager)
	return nil
}

func (r *RewardItemPostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).Model(&models.RewardItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reward items: %w", err)
	}
	return count, nil
}

func (r *RewardItemPostgreSQL) CountOutOfStock(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.RewardItem{}).
		Where("stock = 0").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count out of stock items: %w", err)
	}
	return count, nil
}
