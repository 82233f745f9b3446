package store

import (
	"context"
	"fmt"
	"strings"
)

// EnqueueMail writes one message to the mail outbox. An external trigger
// consumes the table and does the actual sending.
func (s *Store) EnqueueMail(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("mail recipient is required")
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO mail (to_addr, subject, body, created_at)
		VALUES ($1, $2, $3, NOW())
	`, to, subject, body); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

// CreateFeedback stores a contact-form or feedback submission.
func (s *Store) CreateFeedback(ctx context.Context, email, category, message string) (int64, error) {
	if strings.TrimSpace(message) == "" {
		return 0, fmt.Errorf("feedback message is required")
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO feedbacks (email, category, message, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, nullIfEmpty(email), nullIfEmpty(category), message).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return id, nil
}
