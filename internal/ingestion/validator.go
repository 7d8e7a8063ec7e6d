package ingestion

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"waste-bin-monitor/internal/domain/device"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("event_kind", validateEventKind); err != nil {
		panic(err)
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateStruct runs the struct tags of a decoded message and reports the
// first failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed on '%s'", fe.Tag()),
		}
	}
	return err
}

func validateEventKind(fl validator.FieldLevel) bool {
	return device.EventKind(fl.Field().String()).IsKnown()
}
