package services

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
	"github.com/codeninja-coin/admin-service/internal/repositories/postgres"
	"github.com/codeninja-coin/admin-service/internal/validator"
)

const testTopic = "domain-events"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func setupTestRepository(t *testing.T) repositories.Repository {
	t.Helper()
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: setupTestDB(t)})
}

type testServices struct {
	repo       repositories.Repository
	publisher  *events.MockEventPublisher
	students   StudentService
	rewardItem RewardItemService
}

func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	repo := setupTestRepository(t)
	publisher := events.NewMockEventPublisher(testLogger())
	v := validator.New()

	return &testServices{
		repo:       repo,
		publisher:  publisher,
		students:   NewStudentService(repo, testLogger(), v, publisher, testTopic),
		rewardItem: NewRewardItemService(repo, testLogger(), v, publisher, testTopic),
	}
}
