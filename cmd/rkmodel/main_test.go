package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/rk-toolkit/pkg/config"
	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
	"github.com/dd0wney/rk-toolkit/pkg/rkio"
)

const testConfig = `
ontology:
  root:
    A:
      A_1: {}
      A_2: {}
    B:
      B_1: {}
      B_2: {}
filters:
  B_2:
    kind: range
    min: 0
    max: 3
`

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"array", `[{"A_1": 1}, {"A_1": 2}]`, 2},
		{"json lines", "{\"A_1\": 1}\n{\"A_1\": 2}\n{\"A_1\": 3}\n", 3},
		{"leading whitespace", "\n\t [ {\"A_1\": 1} ]", 1},
		{"empty", "  \n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRecords(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := readRecords(strings.NewReader(`{"A_1": 1} {"A_1":`))
	assert.Error(t, err)
}

func buildModels(t *testing.T, n int) []*pipeline.Model {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	p, err := cfg.Build(logging.NewNopLogger(), nil)
	require.NoError(t, err)

	records, err := readRecords(strings.NewReader(
		`[{"A_1": 1, "A_2": 2, "B_1": 3, "B_2": 4},
		  {"A_1": 2, "A_2": 1, "B_1": 4, "B_2": 3},
		  {"A_1": 0, "A_2": 5, "B_1": 1, "B_2": 2}]`))
	require.NoError(t, err)

	var models []*pipeline.Model
	for _, rec := range records[:n] {
		m, err := p.Transform(rec)
		require.NoError(t, err)
		models = append(models, m)
	}
	return models
}

func TestRenderModel(t *testing.T) {
	out := renderModel(buildModels(t, 1)[0])
	for _, want := range []string{"root", "A_1 = 1", "B_2 = 4 (masked)", "A_1->A_2", "location"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSummary(t *testing.T) {
	models := buildModels(t, 3)
	out, err := renderSummary(models, graph.DefaultDistanceOptions(), 2)
	require.NoError(t, err)
	assert.Contains(t, out, "similarity")
	assert.Contains(t, out, "#1")
	assert.NotContains(t, out, "#2", "matrix is limited to two models")
	assert.Contains(t, out, "1.000")
	// three models over four varying values leave the covariance singular
	assert.Contains(t, out, "mahalanobis")
}

func TestRun_WritesModelFile(t *testing.T) {
	dir := t.TempDir()
	recordsPath := filepath.Join(dir, "records.jsonl")
	require.NoError(t, os.WriteFile(recordsPath,
		[]byte("{\"A_1\": 1, \"B_2\": 4}\n{\"A_1\": 2, \"B_2\": 1}\n"), 0o600))

	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	cfg.Output.Path = filepath.Join(dir, "models.rk")

	err = run(context.Background(), cfg, recordsPath, logging.NewNopLogger(), options{maxColumns: 4})
	require.NoError(t, err)

	r, err := rkio.OpenFile(cfg.Output.Path)
	require.NoError(t, err)
	defer r.Close()
	models, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, []string{"B_2"}, models[0].Mask.Nodes())
	assert.Empty(t, models[1].Mask.Nodes())
}

func TestRun_BadFilterTarget(t *testing.T) {
	dir := t.TempDir()
	recordsPath := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(recordsPath, []byte(`[{"A_1": 1}]`), 0o600))

	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	err = run(context.Background(), cfg, recordsPath, logging.NewNopLogger(), options{})
	assert.ErrorIs(t, err, pipeline.ErrInvalidFilterTarget)
}
