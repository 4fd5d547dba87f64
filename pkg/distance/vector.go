package distance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrDimensionMismatch is returned when two vectors or a matrix and a
	// vector disagree in length.
	ErrDimensionMismatch = errors.New("vector dimensions mismatch")
	// ErrUnsupportedMetric is returned by Distance for unknown metric names.
	ErrUnsupportedMetric = errors.New("unsupported distance metric")
)

// Metric names a value-distance formula.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
)

func sameLength(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// CosineSimilarity is a·b / (‖a‖‖b‖), in [-1, 1]. A zero vector has no
// direction; its similarity to anything is 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (na * nb), nil
}

// CosineDistance is 1 - CosineSimilarity, in [0, 2].
func CosineDistance(a, b []float64) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// EuclideanDistance is the L2 norm of a-b.
func EuclideanDistance(a, b []float64) (float64, error) {
	if err := sameLength(a, b); err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(a, b, 2), nil
}

// Scalar is |a-b|.
func Scalar(a, b float64) float64 {
	return math.Abs(a - b)
}

// FillNaN returns a copy of v with NaNs replaced by fill.
func FillNaN(v []float64, fill float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			x = fill
		}
		out[i] = x
	}
	return out
}

// Distance dispatches on metric.
func Distance(a, b []float64, metric Metric) (float64, error) {
	switch metric {
	case MetricCosine:
		return CosineDistance(a, b)
	case MetricEuclidean:
		return EuclideanDistance(a, b)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, metric)
}
