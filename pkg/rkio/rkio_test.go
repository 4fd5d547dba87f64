package rkio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/rk-toolkit/pkg/filter"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
)

func testModels(t *testing.T, n int) []*pipeline.Model {
	t.Helper()
	var o ontology.Ontology
	require.NoError(t, json.Unmarshal([]byte(`{"root": {"A": {"A_1": {}, "A_2": {}}, "B": {"B_1": {}, "B_2": {}}}}`), &o))
	nop := logging.NewNopLogger()
	tr, err := ontology.New(o, ontology.WithLogger(nop))
	require.NoError(t, err)
	p := pipeline.New(tr,
		pipeline.WithLogger(nop),
		pipeline.WithFilter("B_2", filter.NewRangeFilter(0, 3, nop)),
	)

	models := make([]*pipeline.Model, n)
	for i := range models {
		m, err := p.Transform(ontology.MapRecord{
			"A_1": float64(i), "A_2": 2.0, "B_1": 3.0, "B_2": float64(2 + i),
		})
		require.NoError(t, err)
		models[i] = m
	}
	return models
}

func TestFile_NaNValues(t *testing.T) {
	m := testModels(t, 1)[0]
	n, ok := m.Structural.Node("B_2")
	require.True(t, ok)
	n.Value = math.NaN()

	path := filepath.Join(t.TempDir(), "models.rk")
	w, err := CreateFile(path, WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	written, err := w.Write(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, written)
	require.NoError(t, w.Close())

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)

	decoded, ok := got[0].Structural.Node("B_2")
	require.True(t, ok)
	assert.Nil(t, decoded.Value)
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.rk")
	reg := metrics.NewRegistry()
	models := testModels(t, 3)

	w, err := CreateFile(path, WithLogger(logging.NewNopLogger()), WithMetrics(reg))
	require.NoError(t, err)
	for _, m := range models {
		ok, err := w.Write(context.Background(), m)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 3, w.Count())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	r, err := OpenFile(path, WithMetrics(reg))
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, models[i].ID, m.ID)
		assert.True(t, m.Complete())
		assert.Equal(t, models[i].Mask.Nodes(), m.Mask.Nodes())
		assert.Equal(t, models[i].Location, m.Location)
		assert.Equal(t, models[i].Structural.NodeIDs(), m.Structural.NodeIDs())
	}

	assert.False(t, r.Next())
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.rk")
	w, err := CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	models, err := r.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestFile_SkipsIncompleteModels(t *testing.T) {
	w, err := CreateFile(filepath.Join(t.TempDir(), "m.rk"), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	defer w.Close()

	ok, err := w.Write(context.Background(), &pipeline.Model{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, w.Count())
}

func TestFile_WriteAfterClose(t *testing.T) {
	w, err := CreateFile(filepath.Join(t.TempDir(), "m.rk"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write(context.Background(), testModels(t, 1)[0])
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Flush(), ErrClosed)
}

func TestOpenFile_Corrupt(t *testing.T) {
	dir := t.TempDir()

	badMagic := filepath.Join(dir, "magic.rk")
	require.NoError(t, os.WriteFile(badMagic, []byte("NOPE...."), 0o600))
	_, err := OpenFile(badMagic)
	assert.ErrorIs(t, err, ErrCorrupt)

	short := filepath.Join(dir, "short.rk")
	require.NoError(t, os.WriteFile(short, []byte("RK"), 0o600))
	_, err = OpenFile(short)
	assert.ErrorIs(t, err, ErrCorrupt)

	// flip a payload byte so the checksum no longer matches
	path := filepath.Join(dir, "flip.rk")
	w, err := CreateFile(path)
	require.NoError(t, err)
	_, err = w.Write(context.Background(), testModels(t, 1)[0])
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Read()
	assert.ErrorIs(t, err, ErrCorrupt)

	// truncated frame
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o600))
	r2, err := OpenFile(path)
	require.NoError(t, err)
	defer r2.Close()
	_, err = r2.Read()
	assert.ErrorIs(t, err, ErrCorrupt)
}

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
}

func TestS3Writer_Write(t *testing.T) {
	put := &fakePutter{}
	w := NewS3Writer(put, "models", "runs/1/", WithLogger(logging.NewNopLogger()))
	m := testModels(t, 1)[0]

	ok, err := w.Write(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, put.inputs, 1)

	in := put.inputs[0]
	assert.Equal(t, "models", aws.ToString(in.Bucket))
	assert.Equal(t, "runs/1/"+m.ID.String()+".json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))
	assert.Equal(t, int64(len(put.bodies[0])), aws.ToInt64(in.ContentLength))

	var back pipeline.Model
	require.NoError(t, json.Unmarshal(put.bodies[0], &back))
	assert.Equal(t, m.ID, back.ID)
	assert.NoError(t, w.Close())
}

func TestS3Writer_Errors(t *testing.T) {
	boom := errors.New("boom")
	put := &fakePutter{err: boom}
	w := NewS3Writer(put, "models", "", WithLogger(logging.NewNopLogger()))

	ok, err := w.Write(context.Background(), testModels(t, 1)[0])
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	ok, err = w.Write(context.Background(), &pipeline.Model{})
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestWriters_SatisfyInterfaces(t *testing.T) {
	var _ Writer = (*FileWriter)(nil)
	var _ Writer = (*S3Writer)(nil)
	var _ Reader = (*FileReader)(nil)
	var _ objectPutter = (*s3.Client)(nil)
}
