// Package executor is the AC executor & state cache, per spec.md §4.5.
// Grounded on the original implementation's AcStateManager
// (ac_controller/ac_executor/mod.rs): a per-device cached AcState plus an
// initialized-devices set for first-execution forcing, adapted from a
// process-global OnceLock singleton to an explicit, constructor-built
// Executor so callers (and tests) control its lifetime.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/acclient"
	"github.com/NotCoffee418/power-control-center/internal/model/macstate"
	"github.com/NotCoffee418/power-control-center/internal/model/maction"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
)

// MinOnTime is the shortest time a device must stay on before the
// executor will act on a plan that turns it off, a compressor
// short-cycling guard supplemented from the original implementation's
// min_on_time.rs (not present in spec.md's text — see DESIGN.md). A PIR
// detection bypasses the guard: planner.Driver.ReevaluateNow calls
// ClearMinOnTimeGuard for a pir_detection request.
const MinOnTime = 30 * time.Minute

// MaxConsecutiveFailuresBeforeDegraded marks a device degraded in the
// action log after this many consecutive command failures, per
// spec.md §4.5's "After two consecutive failures... marks the device
// degraded" rule.
const MaxConsecutiveFailuresBeforeDegraded = 2

var ErrUnknownDevice = errors.New("executor: unknown device")

type deviceState struct {
	mu           sync.Mutex
	cache        macstate.AcState
	initialized  bool
	failures     int
	lastTurnOn   time.Time
	lastActionAt time.Time
}

// Executor converts Plans into the minimum set of device commands and
// tracks each device's last-known physical state.
type Executor struct {
	client acclient.Client
	logger *slog.Logger

	mu      sync.Mutex
	devices map[string]*deviceState
}

func New(client acclient.Client, logger *slog.Logger) *Executor {
	return &Executor{
		client:  client,
		logger:  logger,
		devices: make(map[string]*deviceState),
	}
}

func (e *Executor) state(device string) *deviceState {
	e.mu.Lock()
	defer e.mu.Unlock()
	ds, ok := e.devices[device]
	if !ok {
		ds = &deviceState{cache: macstate.Off()}
		e.devices[device] = ds
	}
	return ds
}

// Degraded reports whether device has had
// MaxConsecutiveFailuresBeforeDegraded or more consecutive command
// failures and has therefore never confirmed a successful sync since.
func (e *Executor) Degraded(device string) bool {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.failures >= MaxConsecutiveFailuresBeforeDegraded
}

// CachedState returns the device's last-known (successfully confirmed)
// AcState, used by the evaluator's ActiveCommand node via
// internal/snapshot.
func (e *Executor) CachedState(device string) (macstate.AcState, bool) {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.cache, ds.initialized
}

// LastChangeMinutes implements internal/snapshot.LastChangeSource: minutes
// since the last command this executor actually issued to device, for
// the evaluator's LastChangeMinutes sensor node. ok is false if the
// device has never had a command issued this process.
func (e *Executor) LastChangeMinutes(device string, now time.Time) (int, bool) {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.lastActionAt.IsZero() {
		return 0, false
	}
	return int(now.Sub(ds.lastActionAt).Minutes()), true
}

// ForceFullResend marks device as if it had never been initialized, so
// the next Execute call resends its full state regardless of diff — used
// for the manual→auto transition (spec.md §4.4/§8).
func (e *Executor) ForceFullResend(device string) {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.initialized = false
}

// ClearMinOnTimeGuard lets a PIR detection turn a device off immediately
// even within MinOnTime of having turned it on, mirroring the original
// implementation's pir_state-clears-min-on-time behavior.
func (e *Executor) ClearMinOnTimeGuard(device string) {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.lastTurnOn = time.Time{}
}

// Execute converts plan into the minimum set of commands for device and
// issues them, updating the cache only on success (spec.md §4.5 points
// 1-5). It returns the ActionRecords for whatever commands were actually
// confirmed, for the caller to append to the action log. A *CommandFailed
// error may accompany a non-empty records slice when an earlier command
// in the sequence (e.g. turn_on_ac) succeeded but a later one (e.g.
// toggle_powerful) did not; the caller should still persist those
// records even though err is non-nil.
func (e *Executor) Execute(ctx context.Context, device string, plan mplan.Plan, now time.Time) ([]maction.ActionRecord, error) {
	ds := e.state(device)
	ds.mu.Lock()
	defer ds.mu.Unlock()

	desired := PlanToState(plan, ds.cache)
	first := !ds.initialized

	if !desired.IsOn && ds.cache.IsOn && !first {
		if !ds.lastTurnOn.IsZero() && now.Sub(ds.lastTurnOn) < MinOnTime {
			e.logger.Debug("min on-time guard active, holding off", "device", device, "since", ds.lastTurnOn)
			return nil, nil
		}
	}

	var records []maction.ActionRecord

	switch {
	case first:
		if desired.IsOn {
			if err := e.client.TurnOnAc(ctx, device, int(desired.Mode), desired.Temperature, desired.FanSpeed, desired.Swing); err != nil {
				return nil, e.fail(ds, device, err, onRecord(device, desired, plan, now))
			}
			records = append(records, onRecord(device, desired, plan, now))
			if desired.Powerful {
				if err := e.client.TogglePowerful(ctx, device); err != nil {
					return records, e.fail(ds, device, err, toggleRecord(device, plan, now))
				}
				records = append(records, toggleRecord(device, plan, now))
			}
		} else {
			if err := e.client.TurnOffAc(ctx, device); err != nil {
				return nil, e.fail(ds, device, err, offRecord(device, plan, now))
			}
			records = append(records, offRecord(device, plan, now))
		}
	default:
		if !desired.IsOn && !ds.cache.IsOn {
			break
		}
		if desired.IsOn && (!ds.cache.IsOn || ds.cache.Mode != desired.Mode || ds.cache.Temperature != desired.Temperature || ds.cache.FanSpeed != desired.FanSpeed || ds.cache.Swing != desired.Swing) {
			if err := e.client.TurnOnAc(ctx, device, int(desired.Mode), desired.Temperature, desired.FanSpeed, desired.Swing); err != nil {
				return nil, e.fail(ds, device, err, onRecord(device, desired, plan, now))
			}
			records = append(records, onRecord(device, desired, plan, now))
		} else if !desired.IsOn && ds.cache.IsOn {
			if err := e.client.TurnOffAc(ctx, device); err != nil {
				return nil, e.fail(ds, device, err, offRecord(device, plan, now))
			}
			records = append(records, offRecord(device, plan, now))
		}
		if desired.IsOn && ds.cache.IsOn && desired.Powerful != ds.cache.Powerful {
			if err := e.client.TogglePowerful(ctx, device); err != nil {
				return records, e.fail(ds, device, err, toggleRecord(device, plan, now))
			}
			records = append(records, toggleRecord(device, plan, now))
		}
	}

	if desired.IsOn && !ds.cache.IsOn {
		ds.lastTurnOn = now
	}
	ds.cache = desired
	ds.initialized = true
	ds.failures = 0
	if len(records) > 0 {
		ds.lastActionAt = now
	}
	return records, nil
}

// CommandFailed wraps a device HTTP failure with the command that was
// attempted, per spec.md §7's CommandFailed taxonomy entry ("logged with
// attempted values and a degraded flag"). ac_actions has no column for
// this (its schema is fixed by spec.md §6 to actually-confirmed sends —
// see DESIGN.md), so the attempted record travels on the error instead
// of through the action log; the caller logs it structurally.
type CommandFailed struct {
	Device    string
	Attempted maction.ActionRecord
	Degraded  bool
	Err       error
}

func (e *CommandFailed) Error() string {
	return fmt.Sprintf("executor: %s: command failed: %v", e.Device, e.Err)
}

func (e *CommandFailed) Unwrap() error { return e.Err }

func (e *Executor) fail(ds *deviceState, device string, err error, attempted maction.ActionRecord) error {
	ds.failures++
	degraded := ds.failures >= MaxConsecutiveFailuresBeforeDegraded
	if degraded {
		e.logger.Warn("device marked degraded after consecutive command failures", "device", device, "failures", ds.failures)
	}
	return &CommandFailed{Device: device, Attempted: attempted, Degraded: degraded, Err: err}
}

func onRecord(device string, desired macstate.AcState, plan mplan.Plan, now time.Time) maction.ActionRecord {
	mode := int(desired.Mode)
	fan := desired.FanSpeed
	temp := desired.Temperature
	swing := desired.Swing
	return maction.ActionRecord{
		Timestamp: now, Device: device, ActionType: maction.ActionOn,
		Mode: &mode, FanSpeed: &fan, RequestedTemp: &temp, Swing: &swing,
		CauseID: plan.CauseID,
	}
}

func offRecord(device string, plan mplan.Plan, now time.Time) maction.ActionRecord {
	return maction.ActionRecord{Timestamp: now, Device: device, ActionType: maction.ActionOff, CauseID: plan.CauseID}
}

func toggleRecord(device string, plan mplan.Plan, now time.Time) maction.ActionRecord {
	return maction.ActionRecord{Timestamp: now, Device: device, ActionType: maction.ActionTogglePowerful, CauseID: plan.CauseID}
}
