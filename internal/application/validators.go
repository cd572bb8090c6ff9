package application

import (
	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
)

// RegisterConfigValidators registers the custom validation tags used by
// Config:
//   - aggmethod: a supported aggregation method name
func RegisterConfigValidators(v *validator.Validate) error {
	return v.RegisterValidation("aggmethod", validateAggregationMethod)
}

func validateAggregationMethod(fl validator.FieldLevel) bool {
	_, err := ensemble.ParseMethod(fl.Field().String())
	return err == nil
}
