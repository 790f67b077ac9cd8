package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

// Global validator instance
var validate *Validator

// InitValidator initializes the global validator
func InitValidator() {
	v := validator.New()

	// Register custom validations for round and user fields
	_ = v.RegisterValidation("round_kind", validateRoundKind)
	_ = v.RegisterValidation("entry_source", validateEntrySource)
	_ = v.RegisterValidation("verification_tier", validateVerificationTier)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a user-friendly map
// This prevents leaking internal struct names and provides cleaner error messages
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	// Check if it's a validator.ValidationErrors
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "uuid":
			errs[field] = "Must be a valid UUID"
		case "round_kind":
			errs[field] = "Must be DAILY or WEEKLY"
		case "entry_source":
			errs[field] = "Must be BUY or EARNED"
		case "verification_tier":
			errs[field] = "Must be UNVERIFIED, BASIC or FULL"
		case "gt":
			errs[field] = fmt.Sprintf("Must be greater than %s", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s characters", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// ValidRoundKinds defines the accepted round kinds
var ValidRoundKinds = map[string]bool{
	"DAILY":  true,
	"WEEKLY": true,
}

// ValidEntrySources defines the accepted entry sources
var ValidEntrySources = map[string]bool{
	"BUY":    true,
	"EARNED": true,
}

func validateRoundKind(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	// Allow empty if not required (handled by 'required' tag if needed)
	if kind == "" {
		return true
	}
	return ValidRoundKinds[strings.ToUpper(kind)]
}

func validateEntrySource(fl validator.FieldLevel) bool {
	source := fl.Field().String()
	if source == "" {
		return true
	}
	return ValidEntrySources[strings.ToUpper(source)]
}

// ValidVerificationTiers defines the accepted verification tier names
var ValidVerificationTiers = map[string]bool{
	"UNVERIFIED": true,
	"BASIC":      true,
	"FULL":       true,
}

func validateVerificationTier(fl validator.FieldLevel) bool {
	tier := fl.Field().String()
	if tier == "" {
		return true
	}
	return ValidVerificationTiers[tier]
}
