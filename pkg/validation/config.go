package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig wraps every failure reported by ConfigValidator.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigValidator checks configuration values fluently and collects every
// failure, so one Validate call reports all of them.
//
//	err := validation.NewConfigValidator("ontology").
//		Finite("colorDecay", rate).
//		RangeFloat("colorDecay", rate, 0, 1).
//		Validate()
type ConfigValidator struct {
	name     string
	failures []error
}

// NewConfigValidator starts a validation of the config called name.
func NewConfigValidator(name string) *ConfigValidator {
	return &ConfigValidator{name: name}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) *ConfigValidator {
	cv.failures = append(cv.failures, fmt.Errorf("%s.%s: %s", cv.name, field, fmt.Sprintf(format, args...)))
	return cv
}

// Required rejects an empty string.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value != "" {
		return cv
	}
	return cv.fail(field, "required field is empty")
}

// Finite rejects NaN and ±Inf.
func (cv *ConfigValidator) Finite(field string, value float64) *ConfigValidator {
	if !math.IsNaN(value) && !math.IsInf(value, 0) {
		return cv
	}
	return cv.fail(field, "value %v is not finite", value)
}

// RangeFloat requires lo <= value <= hi.
func (cv *ConfigValidator) RangeFloat(field string, value, lo, hi float64) *ConfigValidator {
	if value >= lo && value <= hi {
		return cv
	}
	return cv.fail(field, "value %v is outside [%v, %v]", value, lo, hi)
}

// LessOrEqual requires low <= high.
func (cv *ConfigValidator) LessOrEqual(lowField string, low float64, highField string, high float64) *ConfigValidator {
	if low <= high {
		return cv
	}
	return cv.fail(lowField, "%v exceeds %s (%v)", low, highField, high)
}

// Custom records the error returned by fn, wrapped so errors.Is still
// matches it.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.failures = append(cv.failures, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	}
	return cv
}

// When runs checks only if cond holds.
func (cv *ConfigValidator) When(cond bool, checks func(*ConfigValidator)) *ConfigValidator {
	if cond {
		checks(cv)
	}
	return cv
}

// Failures returns the collected failures in the order they were found.
func (cv *ConfigValidator) Failures() []error {
	return cv.failures
}

// Validate returns nil, or ErrInvalidConfig joined with every failure.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.failures) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, cv.failures[0])
	}
	return fmt.Errorf("%w: %s has %d problems: %w", ErrInvalidConfig, cv.name, len(cv.failures), errors.Join(cv.failures...))
}

// DefaultOr returns value unless it is the zero value.
func DefaultOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
