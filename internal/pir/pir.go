// Package pir implements the motion-triggered lockout of spec.md §4.6: a
// detection forces a device Off immediately and, for pir_timeout_minutes
// afterward, overrides any non-Off plan the graph would otherwise
// produce back to Off with cause id 2. Grounded on the teacher's plain
// map+mutex state (e.g. pkg/nodemaster's Vars map), generalized to carry
// a per-device timestamp instead of an arbitrary value bag.
package pir

import (
	"sync"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
)

// Gate tracks the most recent PIR detection per device.
type Gate struct {
	timeout time.Duration

	mu           sync.Mutex
	lastDetected map[string]time.Time
}

// New builds a Gate with the configured lockout window
// (spec.md §6's pir_timeout_minutes).
func New(timeout time.Duration) *Gate {
	return &Gate{timeout: timeout, lastDetected: make(map[string]time.Time)}
}

// Detect records device as having just triggered its PIR sensor.
func (g *Gate) Detect(device string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastDetected[device] = now
}

// Active reports whether device is currently within its lockout window.
func (g *Gate) Active(device string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.lastDetected[device]
	if !ok {
		return false
	}
	return now.Sub(t) < g.timeout
}

// MinutesSinceDetection implements internal/snapshot.PirSource: it
// reports the age of the last detection and whether the device is still
// within the lockout window (not merely whether it has ever fired).
func (g *Gate) MinutesSinceDetection(device string, now time.Time) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.lastDetected[device]
	if !ok {
		return 0, false
	}
	if now.Sub(t) >= g.timeout {
		return 0, false
	}
	return int(now.Sub(t).Minutes()), true
}

// Override replaces plan with a forced Off (cause id 2) while device is
// within its lockout window, per spec.md §4.6: "subsequent planner ticks
// must... treat any non-Off plan as replaced by Plan{Off, cause=2}". A
// plan the graph already set to Off is left untouched, since the
// override exists only to prevent turning a device back on, not to
// rewrite an already-compliant plan's cause.
func (g *Gate) Override(plan mplan.Plan, device string, now time.Time) mplan.Plan {
	if !g.Active(device, now) {
		return plan
	}
	if plan.Mode == mplan.ModeOff {
		return plan
	}
	return mplan.Plan{
		Mode:             mplan.ModeOff,
		CauseID:          mcause.PirDetection,
		CauseLabel:       "PIR Detection",
		CauseDescription: "Motion detected; device forced off for the lockout window.",
	}
}
