package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/couchcryptid/fire-behavior-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody caps POST /v1/predictions payloads.
const maxRequestBody = 4 << 20

// Server exposes health, readiness, metrics, and on-demand prediction endpoints.
type Server struct {
	httpServer *http.Server
	predictor  pipeline.Transformer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/predictions routes. A nil predictor disables /v1/predictions.
func NewServer(addr string, ready sharedobs.ReadinessChecker, predictor pipeline.Transformer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if predictor != nil {
		mux.HandleFunc("POST /v1/predictions", s.handlePredict)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// predictionResponse is one element of the /v1/predictions response, in
// request order. Exactly one of Prediction and Error is set.
type predictionResponse struct {
	Prediction *domain.FirePrediction `json:"prediction,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// handlePredict runs a JSON array of observation records through the same
// batch transformer the Kafka pipeline uses.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var records []json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&records); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be a JSON array of observations"})
		return
	}

	now := time.Now().UTC()
	raws := make([]domain.RawEvent, len(records))
	for i, rec := range records {
		raws[i] = domain.RawEvent{Value: rec, Timestamp: now}
	}

	results, err := s.predictor.TransformBatch(r.Context(), raws)
	if err != nil {
		s.logger.Error("predict request failed", "error", err, "observations", len(raws))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]predictionResponse, len(results))
	for i := range results {
		if results[i].Err != nil {
			out[i].Error = results[i].Err.Error()
			continue
		}
		out[i].Prediction = &results[i].Prediction
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
