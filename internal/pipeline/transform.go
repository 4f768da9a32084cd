package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
)

// PredictionTransformer implements Transformer by parsing each observation
// and running the FBP engine once over everything that parsed.
type PredictionTransformer struct {
	defaults domain.Defaults
	logger   *slog.Logger
}

// NewTransformer creates a PredictionTransformer that fills missing inputs
// from defaults.
func NewTransformer(defaults domain.Defaults, logger *slog.Logger) *PredictionTransformer {
	return &PredictionTransformer{
		defaults: defaults,
		logger:   logger,
	}
}

// TransformBatch parses and predicts a batch. Observations that fail to parse
// or have no defined rate of spread are reported in their Result.
func (t *PredictionTransformer) TransformBatch(_ context.Context, raws []domain.RawEvent) ([]Result, error) {
	results := make([]Result, len(raws))
	obs := make([]domain.Observation, 0, len(raws))
	idx := make([]int, 0, len(raws))

	for i, raw := range raws {
		results[i].Raw = raw
		o, err := domain.ParseObservation(raw)
		if err != nil {
			results[i].Err = err
			continue
		}
		obs = append(obs, o)
		idx = append(idx, i)
	}

	if len(obs) == 0 {
		return results, nil
	}

	predictions, err := domain.PredictBatch(obs, t.defaults)
	rejected := domain.PredictionErrors(err)
	if err != nil && len(rejected) == 0 {
		return nil, err
	}
	for j, p := range predictions {
		results[idx[j]].Prediction = p
	}
	for _, pe := range rejected {
		results[idx[pe.Index]].Err = pe
	}

	t.logger.Debug("batch predicted", "observations", len(raws), "predictions", len(predictions)-len(rejected))
	return results, nil
}
