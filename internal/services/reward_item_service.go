package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
	"github.com/codeninja-coin/admin-service/internal/validator"
)

type rewardItemService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	events    eventEmitter
}

func NewRewardItemService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, topic string) RewardItemService {
	return &rewardItemService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		events:    eventEmitter{publisher: publisher, topic: topic, logger: logger},
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *rewardItemService) Create(ctx context.Context, req *models.RewardItemCreateRequest) (*models.RewardItem, error) {
	req.Title = sanitizeText(req.Title)
	req.Description = sanitizeOptional(req.Description)
	req.ImageURL = trimOptional(req.ImageURL)

	if errs := s.validator.ValidateRewardItemCreate(req); len(errs) > 0 {
		return nil, rewardItemCreateError(errs)
	}

	item := &models.RewardItem{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price.Value,
	}
	if req.Stock.Valid {
		item.Stock = req.Stock.Value
	}

	if err := s.repo.RewardItem().Create(ctx, nil, item); err != nil {
		return nil, fmt.Errorf("failed to create reward item: %w", err)
	}

	s.logger.InfoContext(ctx, "Reward item created", "reward_item_id", item.ID, "price", item.Price)
	s.events.emit(ctx, events.RewardItemCreated, item.ID, item.Title, item)

	return item, nil
}

func (s *rewardItemService) GetByID(ctx context.Context, id string) (*models.RewardItem, error) {
	item, err := s.repo.RewardItem().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRewardItemNotFound
		}
		return nil, fmt.Errorf("failed to get reward item: %w", err)
	}
	return item, nil
}

func (s *rewardItemService) List(ctx context.Context) ([]*models.RewardItem, error) {
	items, err := s.repo.RewardItem().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward items: %w", err)
	}
	return items, nil
}

// Update checks the item exists, validates every provided field, then applies
// them and re-reads the item in one transaction.
func (s *rewardItemService) Update(ctx context.Context, id string, req *models.RewardItemUpdateRequest) (*models.RewardItem, error) {
	if req.Title.Set && !req.Title.Null {
		req.Title.Value = sanitizeText(req.Title.Value)
	}
	if req.Description.Set && !req.Description.Null {
		req.Description.Value = sanitizeText(req.Description.Value)
	}
	if req.ImageURL.Set && !req.ImageURL.Null {
		req.ImageURL.Value = strings.TrimSpace(req.ImageURL.Value)
	}

	updates := buildRewardItemUpdates(req)

	var updated *models.RewardItem
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.RewardItem().GetByID(ctx, nil, id); err != nil {
			return err
		}

		if errs := s.validator.ValidateRewardItemUpdate(req); len(errs) > 0 {
			return rewardItemUpdateError(errs)
		}

		if len(updates) > 0 {
			if err := tx.RewardItem().Update(ctx, nil, id, updates); err != nil {
				return err
			}
		}

		item, err := tx.RewardItem().GetByID(ctx, nil, id)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrRewardItemNotFound
		case IsValidationError(err):
			return nil, err
		}
		return nil, fmt.Errorf("failed to update reward item: %w", err)
	}

	s.logger.InfoContext(ctx, "Reward item updated", "reward_item_id", id, "fields", len(updates))
	s.events.emit(ctx, events.RewardItemUpdated, updated.ID, updated.Title, updated)

	return updated, nil
}

func (s *rewardItemService) Delete(ctx context.Context, id string) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.RewardItem().Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRewardItemNotFound
		}
		return fmt.Errorf("failed to delete reward item: %w", err)
	}

	s.logger.InfoContext(ctx, "Reward item deleted", "reward_item_id", id)
	s.events.emit(ctx, events.RewardItemDeleted, item.ID, item.Title, nil)

	return nil
}

// ===== HELPERS =====

func buildRewardItemUpdates(req *models.RewardItemUpdateRequest) map[string]interface{} {
	updates := make(map[string]interface{})

	if req.Title.Set {
		updates["title"] = req.Title.Value
	}
	if req.Description.Set {
		updates["description"] = nullableText(req.Description)
	}
	if req.ImageURL.Set {
		updates["image_url"] = nullableText(req.ImageURL)
	}
	if req.Price.Set {
		updates["price"] = req.Price.Value
	}
	if req.Stock.Set {
		updates["stock"] = req.Stock.Value
	}
	return updates
}

// nullableText maps an explicit null or blank value to SQL NULL
func nullableText(s models.OptionalString) interface{} {
	if s.Null || s.Value == "" {
		return nil
	}
	return s.Value
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func rewardItemCreateError(errs validator.ValidationErrors) error {
	switch {
	case errs.HasRule("title", validator.RuleRequired),
		errs.HasRule("price", validator.RuleRequired),
		errs.HasRule("price", validator.RuleInteger):
		return NewRequestValidationError(msgRewardItemRequired, errs)
	case errs.HasRule("price", validator.RulePositive):
		return NewRequestValidationError(msgPricePositive, errs)
	case errs.Has("stock"):
		return NewRequestValidationError(msgStockNonNegative, errs)
	default:
		return NewRequestValidationError(msgRewardItemInvalid, errs)
	}
}

func rewardItemUpdateError(errs validator.ValidationErrors) error {
	switch {
	case errs.HasRule("title", validator.RuleRequired):
		return NewRequestValidationError("Title must not be empty", errs)
	case errs.Has("price"):
		return NewRequestValidationError("Price must be a positive integer", errs)
	case errs.Has("stock"):
		return NewRequestValidationError(msgStockNonNegative, errs)
	default:
		return NewRequestValidationError(msgRewardItemInvalid, errs)
	}
}
