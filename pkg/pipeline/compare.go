package pipeline

import (
	"slices"

	"github.com/dd0wney/rk-toolkit/pkg/distance"
	"github.com/dd0wney/rk-toolkit/pkg/graph"
)

// DistanceMatrix returns the symmetric matrix of pairwise weighted distances
// between the views of models. Each view is materialised once.
func DistanceMatrix(models []*Model, opts graph.DistanceOptions) ([][]float64, error) {
	return distanceMatrix(models, opts, func(float64, error) {})
}

func distanceMatrix(models []*Model, opts graph.DistanceOptions, observe func(float64, error)) ([][]float64, error) {
	views := make([]*graph.Graph, len(models))
	for i, m := range models {
		v, err := m.View()
		if err != nil {
			return nil, err
		}
		views[i] = v
	}

	out := make([][]float64, len(models))
	for i := range out {
		out[i] = make([]float64, len(models))
	}
	for i := 0; i < len(views); i++ {
		for j := i + 1; j < len(views); j++ {
			d, err := views[i].WeightedDistance(views[j], opts)
			observe(d, err)
			if err != nil {
				return nil, err
			}
			out[i][j], out[j][i] = d, d
		}
	}
	return out, nil
}

// ValueMatrix lays out the structural node values of models as rows over
// the sorted union of their node ids. Missing and non-numeric values are
// replaced by fill.
func ValueMatrix(models []*Model, fill float64) ([]string, [][]float64) {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range models {
		for _, id := range m.Structural.NodeIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)

	rows := make([][]float64, len(models))
	for i, m := range models {
		values := m.Structural.ValueMap(fill)
		row := make([]float64, len(ids))
		for j, id := range ids {
			v, ok := values[id]
			if !ok {
				v = fill
			}
			row[j] = v
		}
		rows[i] = row
	}
	return ids, rows
}

// MahalanobisScores returns the squared Mahalanobis distance of each model's
// value vector from the population formed by all of them. Columns that are
// constant across models carry no information and are dropped before the
// covariance is estimated.
func MahalanobisScores(models []*Model, fill float64) ([]float64, error) {
	_, rows := ValueMatrix(models, fill)
	if len(rows) == 0 {
		return nil, distance.ErrEmptyData
	}

	var keep []int
	for j := range rows[0] {
		for i := 1; i < len(rows); i++ {
			if rows[i][j] != rows[0][j] {
				keep = append(keep, j)
				break
			}
		}
	}
	if len(keep) == 0 {
		return make([]float64, len(rows)), nil
	}

	data := make([][]float64, len(rows))
	for i, row := range rows {
		data[i] = make([]float64, len(keep))
		for k, j := range keep {
			data[i][k] = row[j]
		}
	}
	return distance.Mahalanobis(data, data, nil)
}
