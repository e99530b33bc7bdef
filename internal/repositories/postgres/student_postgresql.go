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

type StudentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewStudentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.StudentRepository {
	return &StudentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if student.FirstName == "" || student.LastName == "" || student.Belt == "" {
		return fmt.Errorf("failed to create student: first name, last name and belt are required")
	}

	if err := s.getDB(tx).WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager)
	return nil
}

// GetByID retrieves a student by ID with caching
func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Student, error) {
	var student models.Student

	err := s.cacheManager.Student.CacheOrExecuteVersioned(ctx, "id:"+id, &student, cache.StudentCacheConfig.TTL, func() (interface{}, error) {
		var dbStudent models.Student
		if err := s.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&dbStudent).Error; err != nil {
			return nil, translateError(err, "get student")
		}
		return &dbStudent, nil
	})
	if err != nil {
		return nil, err
	}

	return &student, nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Student, error) {
	var students []*models.Student

	err := s.cacheManager.Student.CacheOrExecuteVersioned(ctx, "list:all", &students, cache.StudentCacheConfig.TTL, func() (interface{}, error) {
		dbStudents := make([]*models.Student, 0)
		if err := s.getDB(tx).WithContext(ctx).Order(newestFirst).Find(&dbStudents).Error; err != nil {
			return nil, fmt.Errorf("failed to list students: %w", err)
		}
		return dbStudents, nil
	})
	if err != nil {
		return nil, err
	}

	if students == nil {
		students = []*models.Student{}
	}
	return students, nil
}

// IncrementCoins is a single statement so concurrent awards never lose updates
func (s *StudentPostgreSQL) IncrementCoins(ctx context.Context, tx *gorm.DB, id string, delta int) error {
	if delta < 1 {
		return fmt.Errorf("failed to increment coins: delta must be positive, got %d", delta)
	}

	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"coins":      gorm.Expr("coins + ?", delta),
			"updated_at": time.Now(),
		})
	if err := requireAffected(result, "increment coins"); err != nil {
		return err
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager)
	return nil
}

func (s *StudentPostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := s.getDB(tx).WithContext(ctx).Model(&models.Student{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (s *StudentPostgreSQL) SumCoins(ctx context.Context, tx *gorm.DB) (int64, error) {
	var total int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Select("COALESCE(SUM(coins), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum coins: %w", err)
	}
	return total, nil
}
