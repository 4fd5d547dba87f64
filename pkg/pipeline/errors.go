package pipeline

import "errors"

var (
	// ErrInvalidFilterTarget is returned when a filter is bound to a node
	// that is absent from the graph or has no numeric value.
	ErrInvalidFilterTarget = errors.New("invalid filter target")

	// ErrInvalidColumn is returned by Remap for columns that do not name a
	// configured filter or linker knob.
	ErrInvalidColumn = errors.New("invalid knob column")

	// ErrWeightMismatch is returned by Remap when weights and columns have
	// different lengths.
	ErrWeightMismatch = errors.New("weights and columns differ in length")

	// ErrIncompleteModel is returned when a model lacks one of its parts.
	ErrIncompleteModel = errors.New("incomplete model")
)
