// Package validation binds go-playground/validator to Foodgram's error
// model. Handlers validate request DTOs here and get back an AppError whose
// Fields are keyed by the JSON field name, ready to be rendered as the
// field-keyed 400 payload API clients expect.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/foodgram/foodgram/internal/apperror"
)

// HexColorPattern accepts #RGB and #RRGGBB colors.
var HexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)

// usernamePattern mirrors the characters allowed in account usernames.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with Foodgram's custom tags registered:
// "hexcolor" (tag colors) and "username".
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("hexcolor", func(fl validator.FieldLevel) bool {
		return HexColorPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate validates a struct. It returns nil or an *apperror.AppError with
// per-field messages.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to a field-keyed AppError. Nested
// fields keep their dotted path below the top-level JSON name, e.g.
// "ingredients[0].amount" is reported under "ingredients".
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperror.NewInternal(fmt.Errorf("validating request: %w", err))
	}

	fields := make(map[string][]string)
	for _, e := range validationErrs {
		key := topLevelField(e.Namespace())
		fields[key] = append(fields[key], friendlyMessage(e))
	}
	return apperror.NewFieldErrors(fields)
}

// topLevelField strips the struct name prefix and any nested path from a
// validator namespace like "RecipeRequest.ingredients[0].amount".
func topLevelField(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	if i := strings.IndexAny(rest, ".["); i >= 0 {
		return rest[:i]
	}
	return rest
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s items.", e.Param())
		}
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "gte":
		return "Ensure this value is greater than or equal to " + e.Param() + "."
	case "gt":
		return "Ensure this value is greater than " + e.Param() + "."
	case "lte":
		return "Ensure this value is less than or equal to " + e.Param() + "."
	case "hexcolor":
		return "Enter a valid HEX color code."
	case "username":
		return "Enter a valid username. It may contain only letters, digits and @/./+/-/_ characters."
	default:
		return "This value is invalid."
	}
}
