package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/couchcryptid/fire-behavior-service/internal/fbp"
	"github.com/couchcryptid/fire-behavior-service/internal/observability"
	"github.com/couchcryptid/fire-behavior-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.err = nil
		m.mu.Unlock()
		return nil, err
	}
	if len(m.batches) > 0 {
		b := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()
	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	err    error
	failOn map[string]error
}

func (m *mockTransformer) TransformBatch(_ context.Context, raws []domain.RawEvent) ([]pipeline.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]pipeline.Result, len(raws))
	for i, raw := range raws {
		out[i].Raw = raw
		if err, ok := m.failOn[string(raw.Key)]; ok {
			out[i].Err = err
			continue
		}
		out[i].Prediction = domain.FirePrediction{ID: string(raw.Key), FuelType: "C2", FireType: "surface", ROS: 1}
	}
	return out, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.FirePrediction
	fails  int
}

func (m *mockLoader) LoadBatch(_ context.Context, predictions []domain.FirePrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, predictions...)
	return nil
}

func (m *mockLoader) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.loaded))
	for i, p := range m.loaded {
		ids[i] = p.ID
	}
	return ids
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("obs-1"), rawEvent("obs-2")}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 50)
	runFor(t, p, 500*time.Millisecond)

	assert.Equal(t, []string{"obs-1", "obs-2"}, ldr.ids())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesProduced), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PredictionsByType.WithLabelValues("C2", "surface")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PartialTransformErrors(t *testing.T) {
	var committed []string
	var mu sync.Mutex
	commit := func(id string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			committed = append(committed, id)
			mu.Unlock()
			return nil
		}
	}

	good, bad, missing := rawEvent("good"), rawEvent("bad"), rawEvent("missing")
	good.Commit, bad.Commit, missing.Commit = commit("good"), commit("bad"), commit("missing")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{good, bad, missing}}}
	tfm := &mockTransformer{failOn: map[string]error{
		"bad":     &fbp.FuelTypeError{Index: 0, Code: "Q7"},
		"missing": domain.ErrMissingIndex,
	}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 50)
	runFor(t, p, 500*time.Millisecond)

	assert.Equal(t, []string{"good"}, ldr.ids())
	assert.ElementsMatch(t, []string{"good", "bad", "missing"}, committed)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TransformErrors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UnknownFuelTypes), 0)
}

func TestPipeline_Run_BatchTransformError(t *testing.T) {
	committed := 0
	raw := rawEvent("obs-1")
	raw.Commit = func(context.Context) error {
		committed++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{err: fbp.ErrShapeMismatch}, ldr, slog.Default(), metrics, 50)
	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 1, committed)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commitCalled bool
	raw := rawEvent("obs-5")
	raw.Topic = "fire-weather-observations"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 50)
	runFor(t, p, 500*time.Millisecond)

	assert.True(t, commitCalled)
}

func TestPipeline_Run_RetriesAfterLoadFailure(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("obs-1")}, {rawEvent("obs-2")}}}
	ldr := &mockLoader{fails: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 50)
	runFor(t, p, time.Second)

	// The first batch is not committed and would be redelivered by Kafka.
	assert.Equal(t, []string{"obs-2"}, ldr.ids())
}

func TestPipeline_Run_RecoversFromExtractError(t *testing.T) {
	ext := &mockExtractor{
		err:     errors.New("fetch failed"),
		batches: [][]domain.RawEvent{{rawEvent("obs-1")}},
	}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 50)
	runFor(t, p, time.Second)

	assert.Equal(t, []string{"obs-1"}, ldr.ids())
}

func TestPredictionTransformer_Fixture(t *testing.T) {
	fixed := time.Date(2024, time.July, 14, 18, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	raws := loadFixture(t)
	tfm := pipeline.NewTransformer(domain.StandardDefaults(100, 1), slog.Default())

	results, err := tfm.TransformBatch(context.Background(), raws)
	require.NoError(t, err)
	require.Len(t, results, len(raws))

	type summary struct {
		Station  string
		Fuel     string
		FireType string
	}
	var got []summary
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		p := r.Prediction
		got = append(got, summary{Station: p.StationID, Fuel: p.FuelType, FireType: p.FireType})

		assert.GreaterOrEqual(t, p.ROS, fbp.MinRateOfSpread, p.ID)
		assert.LessOrEqual(t, p.ROSt, p.ROS, p.ID)
		assert.GreaterOrEqual(t, p.CFB, 0.0, p.ID)
		assert.LessOrEqual(t, p.CFB, 1.0, p.ID)
		assert.InDelta(t, p.SFC+p.CFC, p.TFC, 1e-9, p.ID)
		assert.Equal(t, fixed, p.ProcessedAt)
	}

	want := []summary{
		{"WHT", "C2", "crown"},
		{"FSJ", "C6", "intermittent_crown"},
		{"PGE", "M3", "crown"},
		{"KAM", "O1A", "surface"},
		{"HAY", "D1", "surface"},
		{"YXE", "S2", "surface"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("prediction summary mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, results[6].Err, fbp.ErrUnknownFuelType)
	assert.ErrorIs(t, results[7].Err, domain.ErrMissingIndex)

	assert.InDelta(t, 12.393254964107612, results[0].Prediction.ROS, 1e-6)
	assert.InDelta(t, 12.933341848120527, results[1].Prediction.ROS, 1e-6)
	assert.InDelta(t, 19.79698635680483, results[2].Prediction.ROS, 1e-6)
}

func TestPredictionTransformer_UndefinedSpread(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.StandardDefaults(100, 1), slog.Default())
	raws := []domain.RawEvent{
		{Value: []byte(`{"station_id":"s1","fuel_type":"C2","isi":-1,"bui":50}`)},
		{Value: []byte(`{"station_id":"s2","fuel_type":"C2","isi":10,"bui":50,"cbh":-2}`)},
		{Value: []byte(`{"station_id":"s3","fuel_type":"C2","isi":10,"bui":50,"sfc":5,"cbh":3}`)},
	}

	results, err := tfm.TransformBatch(context.Background(), raws)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, domain.ErrInvalidIndex)
	assert.ErrorIs(t, results[1].Err, domain.ErrUndefinedSpread)
	assert.Empty(t, results[1].Prediction.FireType)

	require.NoError(t, results[2].Err)
	assert.Equal(t, "s3", results[2].Prediction.StationID)
	assert.InDelta(t, 12.393254964107612, results[2].Prediction.ROS, 1e-6)
}

func TestPredictionTransformer_AllInvalid(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.StandardDefaults(100, 1), slog.Default())
	results, err := tfm.TransformBatch(context.Background(), []domain.RawEvent{{Value: []byte("not json")}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

// --- helpers ---

func rawEvent(key string) domain.RawEvent {
	return domain.RawEvent{Key: []byte(key), Value: []byte(`{}`)}
}

func loadFixture(t *testing.T) []domain.RawEvent {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "observations.json"))
	require.NoError(t, err)

	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &records))

	raws := make([]domain.RawEvent, len(records))
	for i, rec := range records {
		raws[i] = domain.RawEvent{Value: rec, Timestamp: time.Date(2024, time.July, 14, 18, 5, 0, 0, time.UTC)}
	}
	return raws
}
