// Package contact validates phone numbers, e-mails and GST numbers shared by
// the vendor and customer catalogs.
package contact

import (
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/ttacon/libphonenumber"

	"pharmacy/internal/core/apperror"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	gstinRE = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
)

var defaultRegion atomic.Value

func init() {
	defaultRegion.Store("IN")
}

// SetDefaultRegion sets the ISO region used for numbers without a +country prefix.
func SetDefaultRegion(region string) {
	if region = strings.ToUpper(strings.TrimSpace(region)); region != "" {
		defaultRegion.Store(region)
	}
}

// DefaultRegion returns the current default region.
func DefaultRegion() string {
	return defaultRegion.Load().(string)
}

// NormalizePhone parses raw in the default region and returns it in E.164.
// An empty input is allowed and returned unchanged.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(raw, DefaultRegion())
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return "", apperror.NewValidation("invalid phone number").
			WithDetail("field", "phone").
			WithDetail("value", raw)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ValidatePhone checks raw without normalizing it.
func ValidatePhone(raw string) error {
	_, err := NormalizePhone(raw)
	return err
}

// ValidateEmail accepts an empty value.
func ValidateEmail(email string) error {
	if email == "" || emailRE.MatchString(email) {
		return nil
	}
	return apperror.NewValidation("invalid email").
		WithDetail("field", "email").
		WithDetail("value", email)
}

// ValidateGSTIN accepts an empty value.
func ValidateGSTIN(gstin string) error {
	if gstin == "" || gstinRE.MatchString(strings.ToUpper(gstin)) {
		return nil
	}
	return apperror.NewValidation("invalid GSTIN").
		WithDetail("field", "gstin").
		WithDetail("value", gstin)
}
