package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Image       string    `json:"image,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Sizes       []string  `json:"sizes,omitempty"`
	Colors      []Color   `json:"colors,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Color is a named swatch. The original data mixed plain strings and
// {name, value} objects; Name is the canonical identity, Value an optional hex.
type Color struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}
