package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error
}

// Notifier delivers a best-effort message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind Kind, title, body string) error
}
