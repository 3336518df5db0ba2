package notification

import (
	"time"

	domain "credlio-backend/internal/domain/notification"
)

type NotificationDTO struct {
	NotificationID string     `json:"notification_id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDTO(n *domain.Notification) NotificationDTO {
	return NotificationDTO{
		NotificationID: n.NotificationID,
		Type:           string(n.Kind),
		Title:          n.Title,
		Body:           n.Body,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}
