package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/codeninja-coin/admin-service/internal/export"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) ExportStudents(ctx context.Context, w io.Writer) error {
	students, err := s.repo.Student().List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	if err := export.WriteStudents(w, students); err != nil {
		return fmt.Errorf("failed to export students: %w", err)
	}

	s.logger.InfoContext(ctx, "Students exported", "rows", len(students))
	return nil
}

func (s *exportService) ExportRewardItems(ctx context.Context, w io.Writer) error {
	items, err := s.repo.RewardItem().List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list reward items: %w", err)
	}

	if err := export.WriteRewardItems(w, items); err != nil {
		return fmt.Errorf("failed to export reward items: %w", err)
	}

	s.logger.InfoContext(ctx, "Reward items exported", "rows", len(items))
	return nil
}
