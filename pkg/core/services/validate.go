package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
)

const emailTokenBytes = 32

var validate = newValidator()

// newValidator reports fields by their json names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs struct validation and reports the first failing field as a ValidationError
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation("Invalid input")
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return apperr.Validation("%s is required", field)
	case "min":
		return apperr.Validation("%s must be at least %s", field, fe.Param())
	case "oneof":
		return apperr.Validation("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return apperr.Validation("%s must be a date in YYYY-MM-DD format", field)
	default:
		return apperr.Validation("%s is invalid", field)
	}
}

// newEmailToken returns an unguessable hex token for one-time email response links
func newEmailToken() (string, error) {
	b := make([]byte, emailTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate email token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
