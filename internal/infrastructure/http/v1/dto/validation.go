package dto

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pharmacy/internal/domain/catalogs/contact"
)

var registerOnce sync.Once

// RegisterValidators adds the pharmacy tags to gin's validator:
// phone (parsable in the default region) and gstin.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || contact.ValidatePhone(s) == nil
		})
		_ = v.RegisterValidation("gstin", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || contact.ValidateGSTIN(s) == nil
		})
	})
}
