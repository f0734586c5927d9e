package order

import (
	"context"
	"fmt"
	"strings"

	"thriftshop/internal/domain"
	orderrepo "thriftshop/internal/repository/order"
)

type Service struct {
	repo orderrepo.Repository
}

func New(repo orderrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// ListForCustomer returns the orders placed under the given email, newest
// first. Email matching is case-insensitive.
func (s *Service) ListForCustomer(ctx context.Context, email string) ([]domain.Order, error) {
	return s.repo.ListByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves an order along the fulfilment sequence. Skipping steps,
// moving backwards, or leaving a terminal state fails with
// domain.ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s: %s to %s: %w", id, current.Status, next, domain.ErrInvalidTransition)
	}
	return s.repo.UpdateStatus(ctx, id, next)
}
