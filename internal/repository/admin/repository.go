package admin

import (
	"context"

	"thriftshop/internal/domain"
)

type Repository interface {
	// IsAdmin never returns an error: lookup failures degrade to false.
	IsAdmin(ctx context.Context, identityID string) bool
	// Claim matches a signed-in identity against the admin rows, backfilling
	// the user ID onto rows that were invited by email only.
	Claim(ctx context.Context, ident domain.Identity) bool
	List(ctx context.Context) ([]domain.Admin, error)
	Add(ctx context.Context, email string) (*domain.Admin, error)
	Remove(ctx context.Context, userID string) error
}
