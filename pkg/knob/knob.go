// Package knob defines the tunable-parameter contract shared by filters and
// linkage functions.
package knob

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var (
	// ErrUnknown is returned by SetKnob for names the component does not expose.
	ErrUnknown = errors.New("unknown knob")
	// ErrInvalidValue is returned by SetKnob for NaN or infinite values.
	ErrInvalidValue = errors.New("invalid knob value")
)

// Tunable is implemented by components with externally tunable parameters.
type Tunable interface {
	// Knobs returns the current value of every knob.
	Knobs() map[string]float64
	// SetKnob updates a single knob.
	SetKnob(name string, value float64) error
}

// Error reports a rejected SetKnob call.
type Error struct {
	Component string
	Knob      string
	Value     float64
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if errors.Is(e.Cause, ErrUnknown) {
		return fmt.Sprintf("%s: %v %q", e.Component, e.Cause, e.Knob)
	}
	return fmt.Sprintf("%s: knob %q = %v: %v", e.Component, e.Knob, e.Value, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Unknown builds the error for an unrecognised knob name.
func Unknown(component, name string) error {
	return &Error{Component: component, Knob: name, Cause: ErrUnknown}
}

// CheckValue rejects NaN and infinite knob values.
func CheckValue(component, name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &Error{Component: component, Knob: name, Value: value, Cause: ErrInvalidValue}
	}
	return nil
}

// Names returns the knob names of t in lexical order.
func Names(t Tunable) []string {
	return slices.Sorted(maps.Keys(t.Knobs()))
}
