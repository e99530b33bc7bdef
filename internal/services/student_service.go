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

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	events    eventEmitter
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, topic string) StudentService {
	return &studentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		events:    eventEmitter{publisher: publisher, topic: topic, logger: logger},
	}
}

// ===== CORE OPERATIONS =====

func (s *studentService) Create(ctx context.Context, req *models.StudentCreateRequest) (*models.Student, error) {
	req.FirstName = sanitizeText(req.FirstName)
	req.LastName = sanitizeText(req.LastName)
	req.Belt = models.Belt(strings.ToUpper(strings.TrimSpace(string(req.Belt))))

	if errs := s.validator.ValidateStudentCreate(req); len(errs) > 0 {
		return nil, studentValidationError(errs)
	}

	student := &models.Student{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       normalizeAge(req.Age),
		Belt:      req.Belt,
		Coins:     normalizeCoins(req.Coins),
	}

	if err := s.repo.Student().Create(ctx, nil, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.InfoContext(ctx, "Student created", "student_id", student.ID, "belt", student.Belt)
	s.events.emit(ctx, events.StudentCreated, student.ID, student.FullName(), student)

	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context) ([]*models.Student, error) {
	students, err := s.repo.Student().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// AddCoin checks the student exists, then increments in the store itself.
// The balance is never computed in application code.
func (s *studentService) AddCoin(ctx context.Context, id string) (*models.Student, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Student().IncrementCoins(ctx, nil, id, 1); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to add coin: %w", err)
	}

	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Coin added", "student_id", student.ID, "coins", student.Coins)
	s.events.emit(ctx, events.StudentCoinAdded, student.ID, student.FullName(), student)

	return student, nil
}

// ===== HELPERS =====

func studentValidationError(errs validator.ValidationErrors) error {
	for _, field := range []string{"firstName", "lastName", "belt"} {
		if errs.HasRule(field, validator.RuleRequired) {
			return NewRequestValidationError(msgStudentRequired, errs)
		}
	}
	if errs.HasRule("belt", "belt") {
		return NewRequestValidationError("Belt must be one of "+beltList(), errs)
	}
	return NewRequestValidationError(msgStudentInvalid, errs)
}

func beltList() string {
	names := make([]string, len(models.AllBelts))
	for i, belt := range models.AllBelts {
		names[i] = string(belt)
	}
	return strings.Join(names, ", ")
}

// normalizeAge keeps positive ages and turns anything else into null
func normalizeAge(age models.OptionalInt) *int {
	if !age.Valid || age.Value <= 0 {
		return nil
	}
	return age.Ptr()
}

// normalizeCoins defaults absent, invalid and negative balances to zero
func normalizeCoins(coins models.OptionalInt) int {
	if !coins.Valid || coins.Value < 0 {
		return 0
	}
	return coins.Value
}
