package validation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxNodeIDLength bounds ontology keys and node ids.
	MaxNodeIDLength = 256

	// Knob names are identifiers; they are embedded in "{kind}_{knob}_{target}" columns.
	knobPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates a struct using its `validate` tags and returns the first
// failure in a readable form.
func Struct(s any) error {
	if s == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateNodeID validates an ontology key / node id.
func ValidateNodeID(id string) error {
	if id == "" {
		return errors.New("node id cannot be empty")
	}
	if utf8.RuneCountInString(id) > MaxNodeIDLength {
		return fmt.Errorf("node id '%s' exceeds maximum length of %d characters", id, MaxNodeIDLength)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("node id %q is not valid UTF-8", id)
	}
	return nil
}

// ValidateKnobName validates a filter or linker knob name.
func ValidateKnobName(name string) error {
	if !knobPattern.MatchString(name) {
		return fmt.Errorf("knob name '%s' is invalid (must start with a letter, followed by letters or digits)", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "gtefield", "gtfield":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "dive":
			return fmt.Errorf("%s: invalid element", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
