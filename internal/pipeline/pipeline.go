package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/couchcryptid/fire-behavior-service/internal/fbp"
	"github.com/couchcryptid/fire-behavior-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw observations from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Result pairs a raw observation with its prediction, or with the reason no
// prediction could be made.
type Result struct {
	Raw        domain.RawEvent
	Prediction domain.FirePrediction
	Err        error
}

// Transformer turns a batch of raw observations into predictions. Per-message
// failures are reported in Result.Err; a returned error fails the whole batch.
type Transformer interface {
	TransformBatch(ctx context.Context, raws []domain.RawEvent) ([]Result, error)
}

// BatchLoader writes predictions to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, predictions []domain.FirePrediction) error
}

// Pipeline orchestrates the extract-predict-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has produced at least one
// prediction, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any predictions yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// processBatch runs one extract-predict-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad predicts the whole batch, loads the successes, and commits
// offsets. Messages that cannot be predicted are committed and skipped.
// Returns the number of loaded predictions and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	results, err := p.transformer.TransformBatch(ctx, rawBatch)
	if err != nil {
		p.logger.Error("predict batch failed, skipping batch", "error", err, "batch_size", len(rawBatch))
		p.metrics.TransformErrors.Add(float64(len(rawBatch)))
		for _, raw := range rawBatch {
			p.commitOffset(ctx, raw)
		}
		return 0, true
	}

	outBatch := make([]domain.FirePrediction, 0, len(results))
	successfulRaws := make([]domain.RawEvent, 0, len(results))

	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn("transform failed, skipping message",
				"error", r.Err,
				"topic", r.Raw.Topic,
				"partition", r.Raw.Partition,
				"offset", r.Raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			if errors.Is(r.Err, fbp.ErrUnknownFuelType) {
				p.metrics.UnknownFuelTypes.Inc()
			}
			p.commitOffset(ctx, r.Raw)
			continue
		}
		outBatch = append(outBatch, r.Prediction)
		successfulRaws = append(successfulRaws, r.Raw)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	p.metrics.MessagesProduced.Add(float64(len(outBatch)))
	for _, pred := range outBatch {
		p.metrics.PredictionsByType.WithLabelValues(pred.FuelType, pred.FireType).Inc()
		p.metrics.RateOfSpread.Observe(pred.ROS)
	}

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
