package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSignUp checks the email format and password length of a sign-up request.
func ValidateSignUp(req request.SignUpRequest) error {
	return validateStruct(req)
}

// ValidateSignIn checks that both credentials are present.
func ValidateSignIn(req request.SignInRequest) error {
	return validateStruct(req)
}

// validateStruct runs the struct's validate tags and reports the first failing
// field as an apperrors.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	return apperrors.NewValidationError(field, fieldMessage(field, fe))
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "email must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
