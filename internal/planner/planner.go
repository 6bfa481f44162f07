// Package planner is the scheduler that drives one graph evaluation per
// device per tick, per spec.md §4.4. Grounded on the teacher's
// time.NewTicker+select idiom used throughout the monorepo
// (apps/cli/internal/runner/jsrunner.go,
// packages/server/internal/api/rnodeexecution/rnodeexecution.go,
// packages/server/internal/api/rflow/rflow.go): a ticker loop guarded by
// a sync.Mutex-backed running flag so a slow tick never overlaps the
// next one, plus an ad-hoc channel for out-of-band "reevaluate now"
// requests (PIR detections, manual-to-auto transitions) that shouldn't
// wait for the next scheduled tick.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/actionlog"
	"github.com/NotCoffee418/power-control-center/internal/causereasons"
	"github.com/NotCoffee418/power-control-center/internal/evaluator"
	"github.com/NotCoffee418/power-control-center/internal/executor"
	"github.com/NotCoffee418/power-control-center/internal/graph"
	"github.com/NotCoffee418/power-control-center/internal/graphstore"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
	"github.com/NotCoffee418/power-control-center/internal/pir"
	"github.com/NotCoffee418/power-control-center/internal/snapshot"
)

// TickInterval is the driver's own wake-up period. A graph's own
// EvaluateEveryMinutes governs how often that graph's plan is allowed to
// change the executor's cache; TickInterval only needs to be finer than
// the smallest configured graph interval so per-device due checks stay
// accurate, per spec.md §4.4 point 2.
const TickInterval = 15 * time.Second

// Reevaluate is a request to evaluate device immediately, outside its
// normal schedule, per spec.md §4.4 point 5 (PIR detections) and §4.4/§8
// (manual->auto transitions).
type Reevaluate struct {
	Device string
	Reason string
}

// Driver owns the process's single scheduling loop. Every dependency is
// injected so tests can substitute fakes without touching global state.
type Driver struct {
	store    *graphstore.Store
	registry *nodeset.Registry
	causes   *causereasons.Registry
	snap     *snapshot.Provider
	pirGate  *pir.Gate
	exec     *executor.Executor
	log      *actionlog.Log
	logger   *slog.Logger
	devices  []string

	reevaluate chan Reevaluate

	mu          sync.Mutex
	running     bool
	compiled    *graph.Program
	compiledErr *graph.GraphErr
	lastEval    map[string]time.Time
}

// New builds a Driver. devices is the sorted device id list from
// config.Config.Devices, so a fresh driver processes them in the same
// deterministic order the config file describes.
func New(
	store *graphstore.Store,
	registry *nodeset.Registry,
	causes *causereasons.Registry,
	snap *snapshot.Provider,
	pirGate *pir.Gate,
	exec *executor.Executor,
	log *actionlog.Log,
	logger *slog.Logger,
	devices []string,
) *Driver {
	d := &Driver{
		store:      store,
		registry:   registry,
		causes:     causes,
		snap:       snap,
		pirGate:    pirGate,
		exec:       exec,
		log:        log,
		logger:     logger,
		devices:    devices,
		reevaluate: make(chan Reevaluate),
		lastEval:   make(map[string]time.Time),
	}
	causes.OnChange(d.invalidateCompiled)
	return d
}

// Reevaluate pushes an ad-hoc reevaluation request onto the driver's
// channel, blocking until the driver's loop accepts it. Called from
// internal/pirapi's detect handler and from the manual->auto transition
// detector (spec.md §4.4 point 5, §4.6).
func (d *Driver) Reevaluate(ctx context.Context, req Reevaluate) {
	select {
	case d.reevaluate <- req:
	case <-ctx.Done():
	}
}

func (d *Driver) invalidateCompiled() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compiled = nil
	d.compiledErr = nil
}

// Run drives the scheduling loop until ctx is cancelled, per spec.md
// §4.4's ticker+select shape. Each tick or ad-hoc request is dispatched
// to its own goroutine so the loop keeps servicing the ticker and the
// reevaluate channel while a slow tick is still in flight; the
// running-flag guard in runTick is what actually enforces spec.md §5's
// "ticks never overlap" by dropping whichever one loses the race rather
// than queuing it.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go d.runTick(ctx, d.devices, false)
		case req := <-d.reevaluate:
			go d.runTick(ctx, []string{req.Device}, true)
		}
	}
}

// runTick evaluates devices sequentially (spec.md §4.4 point 6, §5's
// ordering requirement: "so their action-log entries form a total
// order"). force bypasses each device's per-graph EvaluateEveryMinutes
// due check, for ad-hoc reevaluation requests.
func (d *Driver) runTick(ctx context.Context, devices []string, force bool) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn("dropped overlapping tick", "devices", devices)
		return
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	prog, gerr := d.compiledProgram(ctx)
	if gerr != nil {
		d.logger.Warn("active nodeset failed to compile, skipping tick", "violations", len(gerr.Violations))
		return
	}

	now := time.Now()
	for _, device := range devices {
		if !force && !d.due(device, prog, now) {
			continue
		}
		d.evaluateDevice(ctx, device, prog, now)
		d.mu.Lock()
		d.lastEval[device] = now
		d.mu.Unlock()
	}
}

// due reports whether device's last evaluation is old enough to honor
// the compiled graph's EvaluateEveryMinutes, per spec.md §4.4 point 2.
// A device never evaluated before is always due.
func (d *Driver) due(device string, prog *graph.Program, now time.Time) bool {
	d.mu.Lock()
	last, ok := d.lastEval[device]
	d.mu.Unlock()
	if !ok {
		return true
	}
	interval := time.Duration(prog.Graph.EvaluateEveryMinutes) * time.Minute
	if interval <= 0 {
		return true
	}
	return now.Sub(last) >= interval
}

// compiledProgram returns the cached compiled program for the active
// nodeset, recompiling (and repopulating the cache) whenever a prior
// causereasons.Reload invalidated it or none has been compiled yet.
func (d *Driver) compiledProgram(ctx context.Context) (*graph.Program, *graph.GraphErr) {
	d.mu.Lock()
	if d.compiled != nil {
		p := d.compiled
		d.mu.Unlock()
		return p, nil
	}
	d.mu.Unlock()

	g, err := d.store.LoadActive(ctx)
	if err != nil {
		return nil, &graph.GraphErr{Violations: []graph.Violation{{Message: err.Error()}}}
	}
	prog, gerr := graph.Compile(g, d.registry)
	d.mu.Lock()
	defer d.mu.Unlock()
	if gerr != nil {
		d.compiledErr = gerr
		return nil, gerr
	}
	d.compiled = prog
	return prog, nil
}

// evaluateDevice runs one full plan/lockout-override/execute/log cycle
// for device, per spec.md §4.2-§4.7 chained together the way §4.4 point
// 4 describes ("the planner is the only caller of both the evaluator and
// the executor").
func (d *Driver) evaluateDevice(ctx context.Context, device string, prog *graph.Program, now time.Time) {
	// inputs.Missing carries the same fields as missing; a sensor node that
	// projects one of them fails evaluation with mliveinputs.CollectorStale
	// instead of the field silently reading as its zero value (spec.md
	// §4.3, §7's CollectorStale taxonomy entry). This log line is only for
	// observability into which sources were stale, independent of whether
	// the graph actually needed them this tick.
	inputs, missing := d.snap.Snapshot(device, now)
	for _, m := range missing {
		d.logger.Debug("live input missing", "device", device, "field", m.Field)
	}

	plan, evalErr := evaluator.Evaluate(prog, inputs, now)
	if evalErr != nil {
		d.logger.Warn("evaluation failed", "device", device, "node", evalErr.NodeID, "err", evalErr.Err)
		if err := d.log.AppendDiagnostic(ctx, actionlog.Diagnostic{
			Timestamp: now, Device: device, NodeID: evalErr.NodeID, Message: evalErr.Error(),
		}); err != nil {
			d.logger.Warn("failed to append diagnostic", "device", device, "err", err)
		}
		return
	}

	plan = d.pirGate.Override(plan, device, now)

	records, execErr := d.exec.Execute(ctx, device, plan, now)
	for _, rec := range records {
		if err := d.log.Append(ctx, rec); err != nil {
			d.logger.Warn("failed to append action record", "device", device, "err", err)
		}
	}
	if execErr != nil {
		d.logAttemptFailure(ctx, device, now, execErr)
	}
}

// logAttemptFailure records a command failure as a diagnostic, per
// spec.md §7's CommandFailed taxonomy entry ("logged with attempted
// values and a degraded flag") without touching the fixed ac_actions
// schema (see DESIGN.md).
func (d *Driver) logAttemptFailure(ctx context.Context, device string, now time.Time, err error) {
	var cf *executor.CommandFailed
	if !errors.As(err, &cf) {
		d.logger.Warn("command failed", "device", device, "err", err)
		return
	}
	d.logger.Warn("command failed", "device", device, "action", cf.Attempted.ActionType,
		"degraded", cf.Degraded, "err", cf.Err)
	msg := "command failed: " + string(cf.Attempted.ActionType)
	if cf.Degraded {
		msg += " (device degraded)"
	}
	if aerr := d.log.AppendDiagnostic(ctx, actionlog.Diagnostic{
		Timestamp: now, Device: device, Message: msg,
	}); aerr != nil {
		d.logger.Warn("failed to append diagnostic for command failure", "device", device, "err", aerr)
	}
}

// ManualToAutoTransition forces a full resend and enqueues an immediate
// reevaluation for device, per spec.md §4.4/§8's "device just transitioned
// from manual to automatic control; full state resent" cause.
func (d *Driver) ManualToAutoTransition(ctx context.Context, device string) {
	d.exec.ForceFullResend(device)
	d.ReevaluateNow(ctx, device, "manual_to_auto")
}

// ReevaluateNow implements internal/pirapi.Reevaluator: it pushes an
// ad-hoc reevaluation request for device, blocking until the driver's
// loop accepts it or ctx is cancelled. A pir_detection reason also clears
// the executor's MinOnTime guard, per spec.md §4.6: a PIR lockout must
// force the device off immediately even if it turned on moments ago,
// which the guard would otherwise hold open for MinOnTime.
func (d *Driver) ReevaluateNow(ctx context.Context, device, reason string) {
	if reason == "pir_detection" {
		d.exec.ClearMinOnTimeGuard(device)
	}
	d.Reevaluate(ctx, Reevaluate{Device: device, Reason: reason})
}
