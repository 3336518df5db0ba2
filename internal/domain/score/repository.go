package score

import "context"

type Repository interface {
	GetByBorrowerID(ctx context.Context, borrowerID string) (*BorrowerScore, error)
	// Insert fails with ErrAlreadySeeded when a row exists for the borrower.
	Insert(ctx context.Context, s *BorrowerScore) error
	// UpdateVersioned writes s only if the stored version equals expected,
	// bumping it by one; otherwise ErrVersionConflict.
	UpdateVersioned(ctx context.Context, s *BorrowerScore, expected int64) error
}
