package services

import (
	"context"
	"io"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// ===== SERVICE INTERFACES =====

// StudentService manages student intake and coin awards
type StudentService interface {
	Create(ctx context.Context, req *models.StudentCreateRequest) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	// List returns every student, newest first
	List(ctx context.Context) ([]*models.Student, error)
	// AddCoin awards exactly one coin. Repeated calls award again.
	AddCoin(ctx context.Context, id string) (*models.Student, error)
}

// RewardItemService manages the reward catalog
type RewardItemService interface {
	Create(ctx context.Context, req *models.RewardItemCreateRequest) (*models.RewardItem, error)
	GetByID(ctx context.Context, id string) (*models.RewardItem, error)
	List(ctx context.Context) ([]*models.RewardItem, error)
	Update(ctx context.Context, id string, req *models.RewardItemUpdateRequest) (*models.RewardItem, error)
	Delete(ctx context.Context, id string) error
}

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

// ExportService writes the collections as spreadsheets
type ExportService interface {
	ExportStudents(ctx context.Context, w io.Writer) error
	ExportRewardItems(ctx context.Context, w io.Writer) error
}

// ServiceManager owns every service of the application
type ServiceManager interface {
	Student() StudentService
	RewardItem() RewardItemService
	Dashboard() DashboardService
	Export() ExportService
	Activity() *ActivityRecorder

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
