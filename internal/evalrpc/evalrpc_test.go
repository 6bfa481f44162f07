package evalrpc_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/NotCoffee418/power-control-center/internal/evalrpc"
	"github.com/NotCoffee418/power-control-center/internal/graphseed"
	"github.com/NotCoffee418/power-control-center/internal/graphstore"
	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
	"github.com/NotCoffee418/power-control-center/internal/model/mgraph"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
	"github.com/NotCoffee418/power-control-center/pkg/logger"
)

func newTestStore(t *testing.T) *graphstore.Store {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	stmts := []string{
		`CREATE TABLE nodesets (id TEXT PRIMARY KEY, name TEXT NOT NULL, node_json BLOB NOT NULL)`,
		`CREATE TABLE settings (setting_key TEXT PRIMARY KEY, setting_value TEXT NOT NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return graphstore.New(db)
}

type evalResponse struct {
	Plan *struct {
		Mode    mplan.Mode `json:"mode"`
		CauseID int        `json:"cause_id"`
	} `json:"plan,omitempty"`
	Error string `json:"error,omitempty"`
}

func post(t *testing.T, h *evalrpc.Handler, body interface{}) (*httptest.ResponseRecorder, evalResponse) {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", bytes.NewReader(buf))
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp evalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestHandleEvaluate_InlineGraph(t *testing.T) {
	store := newTestStore(t)
	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())

	g := graphseed.IceException("living_room", "Ice Exception", 2.0)
	body := map[string]interface{}{
		"device": "living_room",
		"inputs": map[string]interface{}{"outdoor_temp": -5.0},
		"graph":  g,
	}
	rec, resp := post(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Plan == nil {
		t.Fatalf("expected a plan, got error %q", resp.Error)
	}
	if resp.Plan.Mode != mplan.ModeOff || resp.Plan.CauseID != mcause.IceException {
		t.Errorf("plan = %+v, want Off/IceException", resp.Plan)
	}
}

func TestHandleEvaluate_FallsBackToActiveNodeset(t *testing.T) {
	store := newTestStore(t)
	g := graphseed.IceException("living_room", "Ice Exception", 2.0)
	if err := store.Save(context.Background(), g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SetActive(context.Background(), g.ID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())
	body := map[string]interface{}{
		"device": "living_room",
		"inputs": map[string]interface{}{"outdoor_temp": 20.0},
	}
	rec, resp := post(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Plan == nil {
		t.Fatalf("expected a plan, got error %q", resp.Error)
	}
	if resp.Plan.Mode != mplan.ModeNoChange || resp.Plan.CauseID != mcause.Undefined {
		t.Errorf("plan = %+v, want NoChange/Undefined", resp.Plan)
	}
}

func TestHandleEvaluate_NoGraphAvailable(t *testing.T) {
	store := newTestStore(t)
	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())

	body := map[string]interface{}{
		"device": "living_room",
		"inputs": map[string]interface{}{},
	}
	rec, resp := post(t, h, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error message when no active nodeset exists")
	}
}

func TestHandleEvaluate_GraphFailsToCompile(t *testing.T) {
	store := newTestStore(t)
	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())

	// A graph with a start node id that doesn't resolve to any actual
	// node is the simplest reliable way to force a compile violation
	// without depending on any particular node package's validation.
	broken := &mgraph.Graph{
		ID:          "bad",
		Name:        "Bad Graph",
		StartNodeID: "missing-start",
	}
	body := map[string]interface{}{
		"device": "living_room",
		"inputs": map[string]interface{}{},
		"graph":  broken,
	}
	rec, resp := post(t, h, body)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error message for an uncompilable graph")
	}
}

func TestHandleEvaluate_RejectsMissingDevice(t *testing.T) {
	store := newTestStore(t)
	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())

	rec, resp := post(t, h, map[string]interface{}{"inputs": map[string]interface{}{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error message when device is omitted")
	}
}

func TestHandleEvaluate_RejectsNonPost(t *testing.T) {
	store := newTestStore(t)
	h := evalrpc.New(store, nodeset.NewDefault(), logger.Discard())
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/evaluate", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
