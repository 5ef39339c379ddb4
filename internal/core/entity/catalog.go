package entity

import (
	"context"
	"strings"

	"pharmacy/internal/core/apperror"
)

// Catalog is the base type for master data: items, vendors, customers,
// tax codes, units, locations and departments.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier, unique per catalog
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable interface.
// Code is optional here: it is generated on create when empty.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// GetCode returns the catalog code.
func (c *Catalog) GetCode() string { return c.Code }

// SetCode assigns a generated code.
func (c *Catalog) SetCode(code string) { c.Code = code }

// GetName returns the display name.
func (c *Catalog) GetName() string { return c.Name }
