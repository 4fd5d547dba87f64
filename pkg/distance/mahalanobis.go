package distance

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyData is returned when a distribution has too few observations.
	ErrEmptyData = errors.New("distribution needs at least two observations")
	// ErrSingularCovariance is returned when the covariance matrix is not
	// positive definite and cannot be inverted.
	ErrSingularCovariance = errors.New("covariance matrix is singular")
)

// maxCondition bounds the condition number of an invertible covariance.
const maxCondition = 1e12

// Mahalanobis returns, for each row of x, the squared Mahalanobis distance
// (x-μ)ᵀ Σ⁻¹ (x-μ) to the distribution described by data, whose rows are
// observations and whose columns are variables. μ is the column mean of data.
// If cov is nil, Σ is estimated from data; otherwise cov must be p×p.
func Mahalanobis(x, data, cov [][]float64) ([]float64, error) {
	if len(data) < 2 {
		return nil, ErrEmptyData
	}
	p := len(data[0])
	if p == 0 {
		return nil, ErrEmptyData
	}

	obs, err := denseFromRows(data, p)
	if err != nil {
		return nil, err
	}

	mu := make([]float64, p)
	for j := 0; j < p; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, obs), nil)
	}

	var sigma *mat.SymDense
	if cov == nil {
		sigma = &mat.SymDense{}
		stat.CovarianceMatrix(sigma, obs, nil)
	} else {
		if len(cov) != p {
			return nil, fmt.Errorf("%w: covariance is %dx?, want %dx%d", ErrDimensionMismatch, len(cov), p, p)
		}
		flat := make([]float64, 0, p*p)
		for _, row := range cov {
			if len(row) != p {
				return nil, fmt.Errorf("%w: covariance row has %d columns, want %d", ErrDimensionMismatch, len(row), p)
			}
			flat = append(flat, row...)
		}
		sigma = mat.NewSymDense(p, flat)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok || chol.Cond() > maxCondition {
		return nil, ErrSingularCovariance
	}

	center := mat.NewVecDense(p, mu)
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), p)
		}
		d := stat.Mahalanobis(mat.NewVecDense(p, append([]float64(nil), row...)), center, &chol)
		out[i] = d * d
	}
	return out, nil
}

func denseFromRows(rows [][]float64, p int) (*mat.Dense, error) {
	flat := make([]float64, 0, len(rows)*p)
	for i, row := range rows {
		if len(row) != p {
			return nil, fmt.Errorf("%w: observation %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), p)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), p, flat), nil
}
