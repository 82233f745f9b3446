// Package feedback records user-submitted feedback and pings the admin.
package feedback

import (
	"context"
	"fmt"
	"strings"
)

// Store persists feedback entries.
type Store interface {
	CreateFeedback(ctx context.Context, email, category, message string) (int64, error)
}

// Notifier tells the admin about a new entry.
type Notifier interface {
	SendFeedbackNotification(ctx context.Context, email, category, message string) error
}

// Service hides feedback persistence behind a single submit call.
type Service struct {
	store    Store
	notifier Notifier
}

// New wires the feedback service.
func New(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Submit stores the entry and notifies the admin. The notification is best
// effort: a mail failure does not roll back the stored feedback.
func (s *Service) Submit(ctx context.Context, email, category, message string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(message) == "" {
		return 0, fmt.Errorf("feedback message is required")
	}

	id, err := s.store.CreateFeedback(ctx, email, category, message)
	if err != nil {
		return 0, err
	}

	// Losing the notification is acceptable; losing the entry is not.
	_ = s.notifier.SendFeedbackNotification(ctx, email, category, message)
	return id, nil
}
