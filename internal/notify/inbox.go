package notify

import (
	"context"
	"errors"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository"
)

// InboxSink writes one in-app notification row per recipient.
type InboxSink struct {
	notes repository.NotificationRepository
}

func NewInboxSink(notes repository.NotificationRepository) *InboxSink {
	return &InboxSink{notes: notes}
}

func (s *InboxSink) Name() string { return "inbox" }

func (s *InboxSink) Deliver(ctx context.Context, ev domain.EngineEvent) error {
	msg := Render(ev)
	var errs []error
	for _, userID := range ev.Recipients {
		note := &domain.Notification{
			UserID:     userID,
			Title:      msg.Title,
			Message:    msg.Body,
			Attributes: msg.Attributes,
		}
		if err := s.notes.Create(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
