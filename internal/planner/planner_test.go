package planner_test

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NotCoffee418/power-control-center/internal/acclient"
	"github.com/NotCoffee418/power-control-center/internal/actionlog"
	"github.com/NotCoffee418/power-control-center/internal/causereasons"
	"github.com/NotCoffee418/power-control-center/internal/executor"
	"github.com/NotCoffee418/power-control-center/internal/graphseed"
	"github.com/NotCoffee418/power-control-center/internal/graphstore"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
	"github.com/NotCoffee418/power-control-center/internal/pir"
	"github.com/NotCoffee418/power-control-center/internal/planner"
	"github.com/NotCoffee418/power-control-center/internal/snapshot"
	"github.com/NotCoffee418/power-control-center/pkg/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	stmts := []string{
		`CREATE TABLE ac_actions (
			id TEXT PRIMARY KEY, action_timestamp INTEGER NOT NULL, device_identifier TEXT NOT NULL,
			action_type TEXT NOT NULL, mode INTEGER, fan_speed INTEGER, request_temperature REAL,
			swing INTEGER, measured_temperature REAL, measured_net_power_watt INTEGER,
			measured_solar_production_watt INTEGER, is_human_home INTEGER, cause_id INTEGER NOT NULL
		)`,
		`CREATE TABLE diagnostics (
			id TEXT PRIMARY KEY, ts_unix INTEGER NOT NULL, device_identifier TEXT NOT NULL,
			node_id TEXT NOT NULL, message TEXT NOT NULL
		)`,
		`CREATE TABLE cause_reasons (
			id INTEGER PRIMARY KEY, label TEXT NOT NULL, description TEXT NOT NULL,
			is_hidden INTEGER NOT NULL, is_editable INTEGER NOT NULL
		)`,
		`CREATE TABLE nodesets (id TEXT PRIMARY KEY, name TEXT NOT NULL, node_json BLOB NOT NULL)`,
		`CREATE TABLE settings (setting_key TEXT PRIMARY KEY, setting_value TEXT NOT NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// fakeClient is an acclient.Client whose calls block until unblock is
// closed, letting a test hold one runTick open long enough to prove a
// second tick is dropped rather than queued.
type fakeClient struct {
	onCalls  int32
	offCalls int32
	unblock  chan struct{}
}

func newFakeClient() *fakeClient { return &fakeClient{unblock: make(chan struct{})} }

func (c *fakeClient) block(ctx context.Context) {
	if c.unblock == nil {
		return
	}
	select {
	case <-c.unblock:
	case <-ctx.Done():
	}
}

func (c *fakeClient) TurnOnAc(ctx context.Context, device string, mode int, temperature float64, fanSpeed, swing int) error {
	atomic.AddInt32(&c.onCalls, 1)
	c.block(ctx)
	return nil
}
func (c *fakeClient) TurnOffAc(ctx context.Context, device string) error {
	atomic.AddInt32(&c.offCalls, 1)
	c.block(ctx)
	return nil
}
func (c *fakeClient) TogglePowerful(ctx context.Context, device string) error { return nil }

var _ acclient.Client = (*fakeClient)(nil)

func newDriver(t *testing.T, client acclient.Client, devices []string, graphName string, thresholdC float64) (*planner.Driver, *logger.RecordingHandler) {
	db := newTestDB(t)
	causes := causereasons.New(db)
	if err := causes.Reload(context.Background()); err != nil {
		t.Fatalf("reload causes: %v", err)
	}
	store := graphstore.New(db)
	g := graphseed.IceException(devices[0], graphName, thresholdC)
	if err := store.Save(context.Background(), g); err != nil {
		t.Fatalf("save graph: %v", err)
	}
	if err := store.SetActive(context.Background(), g.ID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	registry := nodeset.NewDefault()
	alog := actionlog.New(db)
	exec := executor.New(client, logger.Discard())
	pirGate := pir.New(30 * time.Minute)
	snap := snapshot.New(exec, pirGate, exec)
	// Populate a fresh weather+meter+device reading so the graph's
	// OutdoorTemp sensor never reports missing.
	snap.PutWeather(snapshot.WeatherReading{OutdoorTemp: 15.0}, time.Now())
	snap.PutMeter(snapshot.MeterReading{}, time.Now())
	for _, dev := range devices {
		snap.PutDevice(dev, snapshot.DeviceReading{}, time.Now())
	}

	log, rec := logger.NewRecording()
	drv := planner.New(store, registry, causes, snap, pirGate, exec, alog, log, devices)
	return drv, rec
}

func TestDriver_EvaluatesDeviceOnDemand(t *testing.T) {
	client := newFakeClient()
	close(client.unblock) // never block in this test
	drv, _ := newDriver(t, client, []string{"living_room"}, "Ice Exception", 20.0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
	defer reqCancel()
	drv.Reevaluate(reqCtx, planner.Reevaluate{Device: "living_room", Reason: "test"})

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&client.offCalls) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an off command within 1s (outdoor temp 15 < threshold 20)")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDriver_DropsOverlappingTick(t *testing.T) {
	client := newFakeClient() // does not close unblock: TurnOffAc blocks until it does
	drv, rec := newDriver(t, client, []string{"living_room"}, "Ice Exception", 20.0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	firstCtx, firstCancel := context.WithTimeout(ctx, 2*time.Second)
	defer firstCancel()
	drv.Reevaluate(firstCtx, planner.Reevaluate{Device: "living_room", Reason: "first"})

	// The first request is now inside the blocking TurnOffAc call. A
	// second one arriving while it's in flight must be dropped with a
	// warning rather than queued behind it.
	time.Sleep(50 * time.Millisecond)
	secondCtx, secondCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer secondCancel()
	drv.Reevaluate(secondCtx, planner.Reevaluate{Device: "living_room", Reason: "second"})

	deadline := time.After(time.Second)
	for !rec.Has("dropped overlapping tick") {
		select {
		case <-deadline:
			t.Fatal("expected a \"dropped overlapping tick\" warning while the first request was in flight")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(client.unblock)
	time.Sleep(50 * time.Millisecond)

	if calls := atomic.LoadInt32(&client.offCalls); calls != 1 {
		t.Errorf("off calls = %d, want 1 (only the first, non-dropped request should have reached the client)", calls)
	}
}

func TestDriver_ManualToAutoForcesFullResendAndReevaluates(t *testing.T) {
	client := newFakeClient()
	close(client.unblock)
	drv, _ := newDriver(t, client, []string{"living_room"}, "Ice Exception", 20.0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
	defer reqCancel()
	drv.ManualToAutoTransition(reqCtx, "living_room")

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&client.offCalls) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected manual->auto transition to trigger an immediate reevaluation")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
