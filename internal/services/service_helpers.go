package services

import (
	"context"
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/codeninja-coin/admin-service/internal/events"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from free text. The result is plain text, so
// the entities bluemonday escapes are decoded again and escaping is left to
// the templates.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// sanitizeOptional returns nil for absent or blank text
func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// eventEmitter publishes domain events on a best effort basis. A failed
// publish never fails the operation that caused it.
type eventEmitter struct {
	publisher events.EventPublisher
	topic     string
	logger    *slog.Logger
}

func (e eventEmitter) emit(ctx context.Context, eventType, subjectID, subjectLabel string, entity interface{}) {
	if e.publisher == nil {
		return
	}

	event, err := events.NewEvent(eventType, events.EntityData{
		SubjectID:    subjectID,
		SubjectLabel: subjectLabel,
		Entity:       entity,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to build domain event", "event_type", eventType, "error", err)
		return
	}

	if err := e.publisher.Publish(ctx, e.topic, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish domain event",
			"event_type", eventType,
			"subject_id", subjectID,
			"error", err)
	}
}
