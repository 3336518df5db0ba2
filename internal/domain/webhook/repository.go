package webhook

import "context"

type Repository interface {
	Append(ctx context.Context, d *Delivery) error
}
