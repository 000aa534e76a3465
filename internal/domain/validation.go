package domain

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that understands the tags used on the
// domain types, including "finite" (rejects NaN and ±Inf).
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(err) // tag name and func are static
	}
	return v
}

func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
