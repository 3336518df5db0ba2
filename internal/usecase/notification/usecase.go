package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "credlio-backend/internal/domain/notification"
	"credlio-backend/pkg/id"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var _ domain.Notifier = (*Usecase)(nil)

type Usecase struct {
	repo domain.Repository
	now  func() time.Time
}

func NewUsecase(r domain.Repository) *Usecase {
	return &Usecase{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// Notify stores an in-app message for userID.
func (u *Usecase) Notify(ctx context.Context, userID string, kind domain.Kind, title, body string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("notify %s: empty user id", kind)
	}
	n := &domain.Notification{
		NotificationID: id.NewID32(),
		UserID:         userID,
		Kind:           kind,
		Title:          title,
		Body:           body,
	}
	if err := u.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", kind, err)
	}
	return nil
}

func (u *Usecase) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]NotificationDTO, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := u.repo.ListByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// MarkRead returns domain.ErrNotFound when the notification is not the user's.
func (u *Usecase) MarkRead(ctx context.Context, notificationID, userID string) error {
	return u.repo.MarkRead(ctx, notificationID, userID, u.now())
}
