package pipeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/rk-toolkit/pkg/filter"
	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/mask"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
)

func TestModel_Complete(t *testing.T) {
	m := &Model{}
	assert.False(t, m.Complete())

	_, err := m.View()
	assert.ErrorIs(t, err, ErrIncompleteModel)
	assert.ErrorIs(t, m.Validate(), ErrIncompleteModel)

	h, _ := graph.NewHierarchical(graph.NewNode("root", nil))
	m = &Model{Structural: h, Mask: mask.New(), Links: []*graph.Edge{}, Location: []float64{}}
	assert.True(t, m.Complete())
}

func TestModel_ValidateDanglingLink(t *testing.T) {
	h, _ := graph.NewHierarchical(graph.NewNode("root", nil))
	m := &Model{
		Structural: h,
		Mask:       mask.New(),
		Links:      []*graph.Edge{graph.NewEdge("root", "ghost")},
		Location:   []float64{},
	}
	assert.ErrorIs(t, m.Validate(), graph.ErrDanglingReference)
}

func TestModel_Similarity(t *testing.T) {
	p := newPipeline(t)
	m1, err := p.Transform(exampleRecord())
	require.NoError(t, err)
	m2, err := p.Transform(exampleRecord())
	require.NoError(t, err)

	opts := graph.DefaultDistanceOptions()
	s, err := m1.Similarity(m2, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	masked := newPipeline(t, WithFilter("A_1", filter.FilterAll{}))
	m3, err := masked.Transform(exampleRecord())
	require.NoError(t, err)

	d, err := m1.Distance(m3, opts)
	require.NoError(t, err)
	assert.Greater(t, d, 0.0)
	assert.LessOrEqual(t, d, 1.0)
}

func TestModel_JSONRoundTrip(t *testing.T) {
	p := newPipeline(t, WithFilter("B_2", filter.NewRangeFilter(0, 3, logging.NewNopLogger())))
	m, err := p.Transform(exampleRecord())
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Model
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.ID, back.ID)
	assert.True(t, back.Complete())
	assert.Equal(t, m.Mask.Nodes(), back.Mask.Nodes())
	assert.Equal(t, linkKeys(m.Links), linkKeys(back.Links))
	assert.Equal(t, m.Structural.NodeIDs(), back.Structural.NodeIDs())

	s, err := m.Similarity(&back, graph.DefaultDistanceOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)
}

func TestDistanceMatrix(t *testing.T) {
	reg := metrics.NewRegistry()
	p := newPipeline(t, WithMetrics(reg))

	records := []ontology.MapRecord{
		exampleRecord(),
		{"A_1": 4.0, "A_2": 3.0, "B_1": 2.0, "B_2": 1.0},
		{"A_1": 1.0, "B_2": 4.0},
	}
	models := make([]*Model, len(records))
	for i, rec := range records {
		m, err := p.Transform(rec)
		require.NoError(t, err)
		models[i] = m
	}

	dm, err := p.DistanceMatrix(models, graph.DefaultDistanceOptions())
	require.NoError(t, err)
	require.Len(t, dm, 3)
	for i := range dm {
		assert.Equal(t, 0.0, dm[i][i])
		for j := range dm {
			assert.Equal(t, dm[i][j], dm[j][i])
		}
	}
	assert.Greater(t, dm[0][1], 0.0)

	plain, err := DistanceMatrix(models, graph.DefaultDistanceOptions())
	require.NoError(t, err)
	assert.Equal(t, dm, plain)
}

func TestMahalanobisScores(t *testing.T) {
	p := newPipeline(t)
	rows := [][4]float64{
		{1, 2, 3, 4},
		{2, 1, 4, 3},
		{0, 5, 1, 2},
		{3, 3, 0, 1},
		{4, 0, 2, 5},
		{1, 4, 5, 0},
	}
	models := make([]*Model, len(rows))
	for i, r := range rows {
		m, err := p.Transform(ontology.MapRecord{"A_1": r[0], "A_2": r[1], "B_1": r[2], "B_2": r[3]})
		require.NoError(t, err)
		models[i] = m
	}

	ids, matrix := ValueMatrix(models, 0)
	assert.Equal(t, []string{"A", "A_1", "A_2", "B", "B_1", "B_2", "root"}, ids)
	assert.Equal(t, []float64{0, 1, 2, 0, 3, 4, 0}, matrix[0])

	scores, err := MahalanobisScores(models, 0)
	require.NoError(t, err)
	require.Len(t, scores, len(rows))

	// With the sample covariance the squared distances sum to (n-1)*p.
	sum := 0.0
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		sum += s
	}
	assert.InDelta(t, 20.0, sum, 1e-9)
	assert.InDelta(t, scores[4], scores[5], 1e-9)
	assert.False(t, math.IsNaN(scores[0]))
}

func TestMahalanobisScores_Constant(t *testing.T) {
	p := newPipeline(t)
	m1, _ := p.Transform(exampleRecord())
	m2, _ := p.Transform(exampleRecord())

	scores, err := MahalanobisScores([]*Model{m1, m2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)

	_, err = MahalanobisScores(nil, 0)
	assert.Error(t, err)
}
