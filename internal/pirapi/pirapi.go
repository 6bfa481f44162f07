// Package pirapi exposes the PIR sensor's two HTTP endpoints of
// spec.md §6: a motion detection push and a liveness heartbeat, both
// guarded by a shared API key. Grounded on the teacher's plain
// http.ServeMux composition (dev-tools-backend/internal/api/api.go) —
// the teacher's own Connect-RPC/protobuf/h2c stack is dropped here per
// SPEC_FULL.md §2's justification: this spec has no multi-host component
// for that stack to serve, and spec.md §1 states "single host" outright.
package pirapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/pir"
)

// Reevaluator is the subset of internal/planner.Driver this package
// needs: pushing an ad-hoc reevaluation once a detection has forced the
// PIR gate open, per spec.md §4.6/§5's "dedicated task that acquires the
// same executor mutex" requirement (satisfied by routing through the
// same Driver the scheduled ticks use, rather than calling the executor
// directly from the handler). Plain strings rather than
// internal/planner.Reevaluate keep this package a leaf, the way
// internal/snapshot's narrow interfaces do for internal/executor.
type Reevaluator interface {
	ReevaluateNow(ctx context.Context, device, reason string)
}

// Handler serves the PIR HTTP surface.
type Handler struct {
	gate      *pir.Gate
	reeval    Reevaluator
	apiKey    string
	logger    *slog.Logger
	nowFn     func() time.Time
}

// New builds a Handler. apiKey is spec.md §6's pir_api_key config value;
// requests are authenticated via an ApiKey or Bearer header carrying it.
func New(gate *pir.Gate, reeval Reevaluator, apiKey string, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, reeval: reeval, apiKey: apiKey, logger: logger, nowFn: time.Now}
}

// Register wires the handler's routes onto mux, following the teacher's
// mux.Handle(path, handler) composition style.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/pir/detect", h.handleDetect)
	mux.HandleFunc("/api/pir/alive", h.handleAlive)
}

// handleDetect implements POST /api/pir/detect?device=<name>, per
// spec.md §6's query-parameter form for both PIR endpoints.
func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	device := r.URL.Query().Get("device")
	if device == "" {
		http.Error(w, "device query parameter is required", http.StatusBadRequest)
		return
	}

	now := h.nowFn()
	h.gate.Detect(device, now)
	h.logger.Info("pir detection", "device", device)

	h.reeval.ReevaluateNow(r.Context(), device, "pir_detection")

	w.WriteHeader(http.StatusAccepted)
}

// handleAlive implements POST /api/pir/alive?device=<name>, a liveness
// beacon only: it authenticates the caller and returns 200, per
// spec.md §6.
func (h *Handler) handleAlive(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("device") == "" {
		http.Error(w, "device query parameter is required", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// authorized checks the ApiKey/Bearer header against the configured key,
// per spec.md §6's auth requirement for both PIR endpoints.
func (h *Handler) authorized(r *http.Request) bool {
	if key := r.Header.Get("ApiKey"); key != "" {
		return key == h.apiKey
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ") == h.apiKey
	}
	return false
}
