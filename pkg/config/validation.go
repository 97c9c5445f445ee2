package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sdejongh/ftpvault/pkg/models"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their YAML key
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the configuration using struct tags and custom rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if c.Connection.RetryBudget > 0 && c.Connection.RetryInterval == 0 {
		return &models.ValidationError{
			Field:   "connection.retry_interval",
			Message: "must be positive when retry_budget is set",
		}
	}

	return nil
}

// formatValidationError converts the first validator failure into a
// ValidationError keyed by its YAML path
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	e := validationErrs[0]
	field := e.Namespace()
	// drop the root struct name
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch e.Tag() {
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(e.Param()), ", "))
	case "min", "gte":
		msg = fmt.Sprintf("must be at least %s", e.Param())
	case "gt":
		msg = fmt.Sprintf("must be greater than %s", e.Param())
	case "required":
		msg = "is required"
	default:
		msg = fmt.Sprintf("validation failed on '%s' tag", e.Tag())
	}
	return &models.ValidationError{Field: field, Message: fmt.Sprintf("%s (value: %v)", msg, e.Value())}
}
