// Package customer provides the Customer catalog.
package customer

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain/catalogs/contact"
)

// Status of a customer account.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Customer is a registered buyer. Walk-in sales do not need one.
type Customer struct {
	entity.Catalog

	Phone       string      `db:"phone" json:"phone,omitempty"`
	Email       string      `db:"email" json:"email,omitempty"`
	Address     string      `db:"address" json:"address,omitempty"`
	Status      Status      `db:"status" json:"status"`
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`
}

// NewCustomer creates an active customer.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog:     entity.NewCatalog(code, name),
		Status:      StatusActive,
		CreditLimit: types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if err := contact.ValidatePhone(c.Phone); err != nil {
		return err
	}
	if err := contact.ValidateEmail(c.Email); err != nil {
		return err
	}
	if !c.Status.Valid() {
		return apperror.NewValidation("invalid customer status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}
	return nil
}

// SetStatus changes the account status.
func (c *Customer) SetStatus(s Status) error {
	if !s.Valid() {
		return apperror.NewValidation("invalid customer status").
			WithDetail("field", "status").
			WithDetail("value", string(s))
	}
	c.Status = s
	return nil
}

// IsActive reports whether invoices may be raised for the customer.
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive && !c.DeletionMark
}
