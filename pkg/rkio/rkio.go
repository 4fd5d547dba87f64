// Package rkio persists R-K models. Models are stored as snappy-compressed
// JSON frames in local files or as JSON objects in S3.
package rkio

import (
	"context"
	"errors"

	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
)

var (
	// ErrClosed is returned by operations on a closed reader or writer.
	ErrClosed = errors.New("rkio: closed")
	// ErrCorrupt is returned when a model file fails its format checks.
	ErrCorrupt = errors.New("rkio: corrupt model file")
)

// Reader yields stored models in the order they were written.
type Reader interface {
	// Read returns the next model, or io.EOF when none remain.
	Read() (*pipeline.Model, error)
	// Next reports whether another model can be read.
	Next() bool
	// ReadAll returns every remaining model.
	ReadAll() ([]*pipeline.Model, error)
	Close() error
}

// Writer stores models. Write reports false with a nil error when the
// model was skipped because it is incomplete.
type Writer interface {
	Write(ctx context.Context, m *pipeline.Model) (bool, error)
	Close() error
}

func readAll(r Reader) ([]*pipeline.Model, error) {
	var out []*pipeline.Model
	for r.Next() {
		m, err := r.Read()
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}
