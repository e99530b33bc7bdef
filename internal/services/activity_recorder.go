package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"gorm.io/datatypes"

	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/models"
	"github.com/codeninja-coin/admin-service/internal/repositories"
)

const activityHandlerName = "activity_recorder"

// ActivityRecorder consumes domain events into the dashboard activity feed
type ActivityRecorder struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	router *message.Router
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewActivityRecorder(repo repositories.Repository, bus *events.Bus, cacheManager *cache.CacheManager, logger *slog.Logger) (*ActivityRecorder, error) {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, bus.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	r := &ActivityRecorder{
		repo:   repo,
		cache:  cacheManager,
		router: router,
		logger: logger,
	}
	router.AddNoPublisherHandler(activityHandlerName, bus.DomainTopic, bus.Shared, r.handle)

	return r, nil
}

// Run consumes events until ctx is cancelled or Close is called. Run after
// Close returns immediately.
func (r *ActivityRecorder) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	return r.router.Run(ctx)
}

// Running is closed once the recorder is subscribed
func (r *ActivityRecorder) Running() chan struct{} {
	return r.router.Running()
}

// Close stops a running recorder. A recorder that never ran has nothing to
// wait for.
func (r *ActivityRecorder) Close() error {
	r.mu.Lock()
	started := r.started
	r.closed = true
	r.mu.Unlock()

	if !started {
		return nil
	}
	return r.router.Close()
}

func (r *ActivityRecorder) handle(msg *message.Message) error {
	ctx := msg.Context()

	event, err := events.Decode(msg)
	if err != nil {
		// a payload that never decodes would be redelivered forever
		r.logger.ErrorContext(ctx, "Dropping undecodable event", "message_id", msg.UUID, "error", err)
		return nil
	}

	entry, err := activityFromEvent(event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Dropping malformed event", "event_id", event.ID, "event_type", event.Type, "error", err)
		return nil
	}

	if err := r.repo.Activity().Append(ctx, nil, entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, r.cache.Stats, "*")
	r.logger.DebugContext(ctx, "Activity recorded", "event_id", event.ID, "action", event.Type)
	return nil
}

func activityFromEvent(event *events.Event) (*models.ActivityLog, error) {
	if event.ID == "" || event.Type == "" {
		return nil, errors.New("event id and type are required")
	}

	var data events.EntityData
	if err := event.DecodeData(&data); err != nil {
		return nil, err
	}

	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &models.ActivityLog{
		EventID:      event.ID,
		Action:       event.Type,
		SubjectID:    data.SubjectID,
		SubjectLabel: data.SubjectLabel,
		Payload:      datatypes.JSON(event.Data),
		CreatedAt:    createdAt,
	}, nil
}
