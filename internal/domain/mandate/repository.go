package mandate

import "context"

type Repository interface {
	Create(ctx context.Context, m *Mandate) error
	GetByMandateID(ctx context.Context, mandateID string) (*Mandate, error)
	Save(ctx context.Context, m *Mandate) error
}
