package notificationmock

import (
	"context"
	"sync"
	"time"

	domain "credlio-backend/internal/domain/notification"
)

var (
	_ domain.Repository = (*Repo)(nil)
	_ domain.Notifier   = (*Recorder)(nil)
)

type Repo struct {
	CreateFn       func(ctx context.Context, n *domain.Notification) error
	ListByUserIDFn func(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkReadFn     func(ctx context.Context, notificationID, userID string, at time.Time) error
}

func (m *Repo) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}

func (m *Repo) ListByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if m.ListByUserIDFn != nil {
		return m.ListByUserIDFn(ctx, userID, unreadOnly, limit)
	}
	return nil, nil
}

func (m *Repo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, notificationID, userID, at)
	}
	return nil
}

// Sent is one captured Notify call.
type Sent struct {
	UserID string
	Kind   domain.Kind
	Title  string
	Body   string
}

// Recorder captures notifications; Err, when set, is returned from every call.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Sent
}

func (r *Recorder) Notify(_ context.Context, userID string, kind domain.Kind, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{UserID: userID, Kind: kind, Title: title, Body: body})
	return r.Err
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds lists the kinds sent to userID, in order.
func (r *Recorder) Kinds(userID string) []domain.Kind {
	var out []domain.Kind
	for _, s := range r.Sent() {
		if s.UserID == userID {
			out = append(out, s.Kind)
		}
	}
	return out
}
