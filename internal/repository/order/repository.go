package order

import (
	"context"

	"thriftshop/internal/domain"
)

type Repository interface {
	// Create fails with domain.ErrUnsupportedField when the draft carries
	// payment-reference fields the schema does not know.
	Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	// CustomerEmails returns the distinct emails that placed orders.
	CustomerEmails(ctx context.Context) ([]string, error)
}
