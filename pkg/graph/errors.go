package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidType is returned when a nil node or edge is handed to the graph.
	ErrInvalidType = errors.New("invalid type")
	// ErrDuplicateID is returned when a node id is already present.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDanglingReference is returned when an edge or parent refers to a missing node.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrNodeNotFound is returned by lookups for absent node ids.
	ErrNodeNotFound = errors.New("node not found")
	// ErrReservedAttribute is returned when an attribute key collides with id or value.
	ErrReservedAttribute = errors.New("reserved attribute key")
	// ErrAttributeExists is returned when a non-overwriting attribute write hits an existing key.
	ErrAttributeExists = errors.New("attribute already exists")
	// ErrNotConnected is returned by Validate for graphs with more than one component.
	ErrNotConnected = errors.New("graph is not connected")
	// ErrCycleDetected is returned by Validate and TopologicalSort for cyclic graphs.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrInvalidEdgeType is returned when a hierarchical graph receives an edge it cannot hold.
	ErrInvalidEdgeType = errors.New("invalid edge type")
	// ErrOrphanNode is returned when a non-root tree node has no parent.
	ErrOrphanNode = errors.New("tree node has no parent")
	// ErrUnsupportedMethod is returned for unknown distance method names.
	ErrUnsupportedMethod = errors.New("unsupported distance method")
	// ErrInvalidWeights is returned when distance weights are negative or sum to zero.
	ErrInvalidWeights = errors.New("invalid distance weights")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op      string // Operation that failed (e.g., "AddNode", "Validate")
	Entity  string // Entity type (e.g., "node", "edge", "graph")
	ID      string // Entity ID (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.ID != "" {
		if e.Context != "" {
			return fmt.Sprintf("%s %s %q (%s): %v", e.Op, e.Entity, e.ID, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building GraphErrors.
type ErrorBuilder struct {
	err GraphError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op, Entity: "graph"}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given endpoints.
func (b *ErrorBuilder) Edge(source, target string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = source + "->" + target
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op, id string) error {
	return NewError(op).Node(id).Cause(ErrNodeNotFound).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsStructural reports whether err indicates a caller defect in graph
// construction (wrong type, duplicate id, dangling reference, orphan node).
func IsStructural(err error) bool {
	return errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrOrphanNode)
}
