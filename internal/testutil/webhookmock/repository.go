package webhookmock

import (
	"context"
	"sync"

	domain "credlio-backend/internal/domain/webhook"
)

var _ domain.Repository = (*Repo)(nil)

// Repo keeps appended deliveries in memory. AppendErr, when set, fails every call.
type Repo struct {
	mu        sync.Mutex
	AppendErr error
	rows      []domain.Delivery
}

func (m *Repo) Append(_ context.Context, d *domain.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.rows = append(m.rows, *d)
	return nil
}

func (m *Repo) Rows() []domain.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Delivery, len(m.rows))
	copy(out, m.rows)
	return out
}
