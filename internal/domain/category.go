package domain

import "time"

// Category represents a product category. Title is unique across all categories.
type Category struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryPatch holds the fields supplied by a partial update.
// A nil field is left unchanged.
type CategoryPatch struct {
	Title       *string
	Description *string
}

// IsEmpty reports whether the patch changes no field.
func (p CategoryPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply merges the patch into c. UpdatedAt is the caller's responsibility.
func (c *Category) Apply(p CategoryPatch) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}
