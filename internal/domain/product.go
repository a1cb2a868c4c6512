package domain

import "time"

// Product represents a product in the catalog.
// CategoryID references exactly one Category; CategoryTitle is only
// populated for responses and is never persisted.
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Brand         string    `json:"brand" db:"brand"`
	Price         float64   `json:"price" db:"price"`
	Quantity      int       `json:"quantity" db:"quantity"`
	CategoryID    string    `json:"category_id" db:"category_id"`
	CategoryTitle string    `json:"-" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ProductPatch holds the fields supplied by a partial update.
type ProductPatch struct {
	Name        *string
	Description *string
	Brand       *string
	Price       *float64
	Quantity    *int
	CategoryID  *string
}

// IsEmpty reports whether the patch changes no field.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Brand == nil &&
		p.Price == nil && p.Quantity == nil && p.CategoryID == nil
}

// Apply merges the patch into p. UpdatedAt is the caller's responsibility.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
}
