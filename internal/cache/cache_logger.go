package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeBumpGeneration retires every versioned key, logging instead of failing
func SafeBumpGeneration(ctx context.Context, helper *CacheHelper) {
	if err := helper.BumpGeneration(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to bump cache generation", "error", err)
	}
}

// InvalidateStudentCache drops every cached student read and the dashboard stats
func InvalidateStudentCache(ctx context.Context, cm *CacheManager) {
	SafeBumpGeneration(ctx, cm.Student)
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateRewardItemCache drops every cached reward item read and the dashboard stats
func InvalidateRewardItemCache(ctx context.Context, cm *CacheManager) {
	SafeBumpGeneration(ctx, cm.RewardItem)
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
