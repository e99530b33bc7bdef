package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/repositories"
	"github.com/codeninja-coin/admin-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Domain events; a nil publisher disables them
	Publisher   events.EventPublisher
	DomainTopic string

	// Bus feeds the activity recorder; nil leaves the recorder out
	Bus *events.Bus

	// Cache backs the dashboard stats; nil computes them per call
	Cache *cache.CacheManager

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repoManager repositories.RepositoryManager
	logger      *slog.Logger
	validator   *validator.Validator
	config      ServiceManagerConfig

	// Service instances
	studentService    StudentService
	rewardItemService RewardItemService
	dashboardService  DashboardService
	exportService     ExportService
	activityRecorder  *ActivityRecorder

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager. The repository manager
// must be initialized before Initialize is called.
func NewServiceManager(repoManager repositories.RepositoryManager, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &serviceManager{
		repoManager: repoManager,
		logger:      logger,
		validator:   validator,
		config:      config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	repo := sm.repoManager.GetRepository()
	if repo == nil {
		return errors.New("failed to initialize services: repository not initialized")
	}

	sm.studentService = NewStudentService(repo, sm.logger, sm.validator, sm.config.Publisher, sm.config.DomainTopic)
	sm.rewardItemService = NewRewardItemService(repo, sm.logger, sm.validator, sm.config.Publisher, sm.config.DomainTopic)
	sm.dashboardService = NewDashboardService(repo, sm.config.Cache, sm.logger)
	sm.exportService = NewExportService(repo, sm.logger)

	if sm.config.Bus != nil {
		recorder, err := NewActivityRecorder(repo, sm.config.Bus, sm.config.Cache, sm.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		sm.activityRecorder = recorder
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully", "activity_recorder", sm.activityRecorder != nil)

	return nil
}

// Service getters

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.studentService
}

func (sm *serviceManager) RewardItem() RewardItemService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.rewardItemService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.dashboardService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

// Activity returns the activity recorder, or nil when no bus was configured
func (sm *serviceManager) Activity() *ActivityRecorder {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.activityRecorder
}

// Health and lifecycle

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	var errs []error
	if sm.activityRecorder != nil {
		if err := sm.activityRecorder.Close(); err != nil {
			sm.logger.Error("Failed to stop activity recorder", "error", err)
			errs = append(errs, err)
		}
	}

	if err := sm.repoManager.Shutdown(ctx); err != nil {
		sm.logger.Error("Failed to shutdown repository manager", "error", err)
		errs = append(errs, err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return errors.Join(errs...)
}
