package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Name       string
	PriceCents int64
	Image      string
	Sizes      []string
	Colors     []map[string]string
}

// Apply inserts demo catalog data for manual testing. It is idempotent:
// products are matched by name and updated in place.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Name:       "Vintage Denim Jacket",
			PriceCents: 4500,
			Image:      "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400",
			Sizes:      []string{"S", "M", "L", "XL"},
			Colors: []map[string]string{
				{"name": "Blue", "value": "#3b5998"},
				{"name": "Black", "value": "#1f1f1f"},
			},
		},
		{
			Name:       "Retro Sunglasses",
			PriceCents: 1500,
			Image:      "https://images.unsplash.com/photo-1572635196237-14b3f281503f?w=400",
		},
		{
			Name:       "Leather Boots",
			PriceCents: 6500,
			Image:      "https://images.unsplash.com/photo-1608256246200-53e635b5b65f?w=400",
			Sizes:      []string{"40", "41", "42", "43", "44"},
			Colors: []map[string]string{
				{"name": "Brown", "value": "#6b4226"},
				{"name": "Black", "value": "#1f1f1f"},
			},
		},
		{
			Name:       "Wool Sweater",
			PriceCents: 3500,
			Image:      "https://images.unsplash.com/photo-1576566588028-4147f3842f27?w=400",
			Sizes:      []string{"S", "M", "L"},
		},
		{
			Name:       "Canvas Tote Bag",
			PriceCents: 2000,
			Image:      "https://images.unsplash.com/photo-1590874103328-eac38a683ce7?w=400",
		},
		{
			Name:       "Silk Scarf",
			PriceCents: 2500,
			Image:      "https://images.unsplash.com/photo-1601924994987-69e26d50dc26?w=400",
			Colors: []map[string]string{
				{"name": "Red", "value": "#b91c1c"},
				{"name": "Gold", "value": "#d4af37"},
			},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	colors := p.Colors
	if colors == nil {
		colors = []map[string]string{}
	}

	const update = `
UPDATE products
SET price_cents = $2, image = $3, sizes = $4, colors = $5
WHERE name = $1
`
	tag, err := pool.Exec(ctx, update, p.Name, p.PriceCents, p.Image, sizes, colors)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const insert = `
INSERT INTO products (name, description, price_cents, image, images, sizes, colors)
VALUES ($1, '', $2, $3, $4, $5, $6)
`
	_, err = pool.Exec(ctx, insert, p.Name, p.PriceCents, p.Image, []string{p.Image}, sizes, colors)
	return err
}
