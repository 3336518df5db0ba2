package mysql

import (
	"context"

	"credlio-backend/internal/domain/webhook"

	"gorm.io/gorm"
)

type WebhookRepository struct{ db *gorm.DB }

func NewWebhookRepository(db *gorm.DB) *WebhookRepository { return &WebhookRepository{db: db} }

func (r *WebhookRepository) Append(ctx context.Context, d *webhook.Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}
