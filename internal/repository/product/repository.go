package product

import (
	"context"

	"thriftshop/internal/domain"
)

type CreateInput struct {
	Name        string
	Description string
	PriceCents  int64
	Image       string
	Images      []string
	Sizes       []string
	Colors      []domain.Color
}

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in CreateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
