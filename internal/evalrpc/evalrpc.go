// Package evalrpc exposes the evaluator as a single JSON HTTP endpoint
// for the simulator/editor UI, per spec.md §6's evaluate() contract.
// Grounded on the teacher's plain http.ServeMux composition
// (dev-tools-backend/internal/api/api.go); the teacher's own
// Connect-RPC/protobuf transport is dropped per SPEC_FULL.md §2's
// justification (no multi-host component in this single-host spec for
// it to serve) in favor of stdlib net/http + encoding/json, which is
// what spec.md §6 itself describes as the wire format.
package evalrpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/graph"
	"github.com/NotCoffee418/power-control-center/internal/graphstore"
	"github.com/NotCoffee418/power-control-center/internal/evaluator"
	"github.com/NotCoffee418/power-control-center/internal/model/macstate"
	"github.com/NotCoffee418/power-control-center/internal/model/mgraph"
	"github.com/NotCoffee418/power-control-center/internal/model/mliveinputs"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
)

// Handler serves POST /api/evaluate.
type Handler struct {
	store    *graphstore.Store
	registry *nodeset.Registry
	logger   *slog.Logger
}

func New(store *graphstore.Store, registry *nodeset.Registry, logger *slog.Logger) *Handler {
	return &Handler{store: store, registry: registry, logger: logger}
}

// Register wires /api/evaluate onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/evaluate", h.handleEvaluate)
}

// request mirrors spec.md §6's evaluate(device, inputs, optional inline
// {nodes,edges}, active_command?) call shape. Graph is nil when the
// caller wants the currently active (saved) nodeset evaluated; an editor
// previewing an unsaved draft sends it inline in Graph instead.
type request struct {
	Device        string               `json:"device"`
	Inputs        inputsPayload        `json:"inputs"`
	Graph         *mgraph.Graph        `json:"graph,omitempty"`
	ActiveCommand *macstate.AcState    `json:"active_command,omitempty"`
}

// inputsPayload is spec.md §6's flat live-inputs bag with its JSON field
// names; the handler copies it field by field into mliveinputs.LiveInputs,
// which carries no json tags of its own.
type inputsPayload struct {
	IndoorTemp        float64 `json:"indoor_temp"`
	IsAutoMode        bool    `json:"is_auto_mode"`
	SolarProductionW  int     `json:"solar_production_w"`
	OutdoorTemp       float64 `json:"outdoor_temp"`
	AvgOutdoorNext24h float64 `json:"avg_outdoor_next_24h"`
	UserIsHome        bool    `json:"user_is_home"`
	PirDetected       bool    `json:"pir_detected"`
	PirMinutesAgo     int     `json:"pir_minutes_ago"`
	LastChangeMinutes int     `json:"last_change_minutes"`
	NetPowerW         int     `json:"net_power_w"`
}

// response mirrors spec.md §6's {plan, ac_state?, error?} result shape.
type response struct {
	Plan    *planPayload `json:"plan,omitempty"`
	ACState *macstate.AcState `json:"ac_state,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type planPayload struct {
	Mode             mplan.Mode      `json:"mode"`
	Intensity        mplan.Intensity `json:"intensity,omitempty"`
	FanSpeedOverride *int            `json:"fan_speed_override,omitempty"`
	CauseID          int             `json:"cause_id"`
	CauseLabel       string          `json:"cause_label"`
	CauseDescription string          `json:"cause_description"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Device == "" {
		writeJSON(w, http.StatusBadRequest, response{Error: "device is required"})
		return
	}

	g, err := h.resolveGraph(r, req.Graph)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: err.Error()})
		return
	}

	prog, gerr := graph.Compile(g, h.registry)
	if gerr != nil {
		h.logger.Warn("evalrpc: graph failed to compile", "device", req.Device, "violations", len(gerr.Violations))
		writeJSON(w, http.StatusUnprocessableEntity, response{Error: gerr.Error()})
		return
	}

	inputs := mliveinputs.LiveInputs{
		Device:            req.Device,
		IndoorTemp:        req.Inputs.IndoorTemp,
		IsAutoMode:        req.Inputs.IsAutoMode,
		SolarProductionW:  req.Inputs.SolarProductionW,
		OutdoorTemp:       req.Inputs.OutdoorTemp,
		AvgOutdoorNext24h: req.Inputs.AvgOutdoorNext24h,
		UserIsHome:        req.Inputs.UserIsHome,
		PirDetected:       req.Inputs.PirDetected,
		PirMinutesAgo:     req.Inputs.PirMinutesAgo,
		LastChangeMinutes: req.Inputs.LastChangeMinutes,
		NetPowerW:         req.Inputs.NetPowerW,
		ActiveCommand:     req.ActiveCommand,
	}

	plan, evalErr := evaluator.Evaluate(prog, inputs, time.Now())
	if evalErr != nil {
		writeJSON(w, http.StatusOK, response{Error: evalErr.Error()})
		return
	}

	writeJSON(w, http.StatusOK, response{Plan: &planPayload{
		Mode:             plan.Mode,
		Intensity:        plan.Intensity,
		FanSpeedOverride: plan.FanSpeedOverride,
		CauseID:          plan.CauseID,
		CauseLabel:       plan.CauseLabel,
		CauseDescription: plan.CauseDescription,
	}})
}

// resolveGraph returns the inline graph from the request, or falls back
// to the persisted active nodeset when the caller omitted one.
func (h *Handler) resolveGraph(r *http.Request, inline *mgraph.Graph) (*mgraph.Graph, error) {
	if inline != nil {
		return inline, nil
	}
	return h.store.LoadActive(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
