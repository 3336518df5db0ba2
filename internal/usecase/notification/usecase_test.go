package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "credlio-backend/internal/domain/notification"
	"credlio-backend/internal/testutil/notificationmock"
	"credlio-backend/pkg/id"
)

func TestNotify(t *testing.T) {
	var saved *domain.Notification
	uc := NewUsecase(&notificationmock.Repo{
		CreateFn: func(_ context.Context, n *domain.Notification) error {
			saved = n
			return nil
		},
	})

	if err := uc.Notify(context.Background(), "user-1", domain.KindLoanActivated, "Loan active", "body"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if saved == nil || saved.UserID != "user-1" || saved.Kind != domain.KindLoanActivated {
		t.Fatalf("unexpected row: %+v", saved)
	}
	if !id.IsID32(saved.NotificationID) {
		t.Fatalf("notification id not 32-hex: %q", saved.NotificationID)
	}
}

func TestNotify_Errors(t *testing.T) {
	uc := NewUsecase(&notificationmock.Repo{})
	if err := uc.Notify(context.Background(), " ", domain.KindKYC, "t", "b"); err == nil {
		t.Fatal("expected error for empty user id")
	}

	boom := errors.New("db down")
	uc = NewUsecase(&notificationmock.Repo{
		CreateFn: func(context.Context, *domain.Notification) error { return boom },
	})
	if err := uc.Notify(context.Background(), "u", domain.KindKYC, "t", "b"); !errors.Is(err, boom) {
		t.Fatalf("want wrapped %v, got %v", boom, err)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"default", 0, defaultListLimit},
		{"negative", -5, defaultListLimit},
		{"within", 10, 10},
		{"too large", 10_000, maxListLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			uc := NewUsecase(&notificationmock.Repo{
				ListByUserIDFn: func(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
					got = limit
					if userID != "u" || !unreadOnly {
						t.Fatalf("args not passed through: %s %v", userID, unreadOnly)
					}
					return []domain.Notification{{NotificationID: "n1", Kind: domain.KindKYC}}, nil
				},
			})
			out, err := uc.List(context.Background(), "u", true, tt.in)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if got != tt.want {
				t.Fatalf("limit = %d, want %d", got, tt.want)
			}
			if len(out) != 1 || out[0].Type != string(domain.KindKYC) {
				t.Fatalf("unexpected dto: %+v", out)
			}
		})
	}
}

func TestMarkRead_UsesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var gotAt time.Time
	uc := NewUsecase(&notificationmock.Repo{
		MarkReadFn: func(_ context.Context, notifID, userID string, at time.Time) error {
			if notifID != "n1" || userID != "u" {
				t.Fatalf("args mismatch")
			}
			gotAt = at
			return nil
		},
	})
	uc.now = func() time.Time { return fixed }

	if err := uc.MarkRead(context.Background(), "n1", "u"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !gotAt.Equal(fixed) {
		t.Fatalf("read_at = %v, want %v", gotAt, fixed)
	}
}
