package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

const recentActivityLimit = 10

type dashboardService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
}

// NewDashboardService builds the dashboard service. A nil cache manager
// computes the stats on every call.
func NewDashboardService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) DashboardService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &dashboardService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	err := s.cache.Stats.CacheOrExecute(ctx, "dashboard", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// computeStats runs the aggregate queries concurrently
func (s *dashboardService) computeStats(ctx context.Context) (*models.DashboardStats, error) {
	s.logger.DebugContext(ctx, "Computing dashboard stats")

	stats := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.Student().Count(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count students: %w", err)
		}
		stats.TotalStudents = n
		return nil
	})

	g.Go(func() error {
		n, err := s.repo.Student().SumCoins(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to sum coins: %w", err)
		}
		stats.TotalCoins = n
		return nil
	})

	g.Go(func() error {
		n, err := s.repo.RewardItem().Count(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count reward items: %w", err)
		}
		stats.TotalRewardItems = n
		return nil
	})

	g.Go(func() error {
		n, err := s.repo.RewardItem().CountOutOfStock(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to count out of stock items: %w", err)
		}
		stats.OutOfStockItems = n
		return nil
	})

	g.Go(func() error {
		recent, err := s.repo.Activity().Recent(gctx, nil, recentActivityLimit)
		if err != nil {
			return fmt.Errorf("failed to get recent activity: %w", err)
		}
		stats.RecentActivity = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.RecentActivity == nil {
		stats.RecentActivity = []*models.ActivityLog{}
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}
