// Package mliveinputs defines the per-device snapshot of live sensor and
// state values the evaluator reads on every tick.
package mliveinputs

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/macstate"
)

// LiveInputs is the read-only snapshot handed to the evaluator for one
// device on one tick.
type LiveInputs struct {
	Device             string
	IndoorTemp         float64
	IsAutoMode         bool
	SolarProductionW   int
	OutdoorTemp        float64
	AvgOutdoorNext24h  float64
	UserIsHome         bool
	PirDetected        bool
	PirMinutesAgo      int
	LastChangeMinutes  int
	NetPowerW          int
	ActiveCommand      *macstate.AcState
	Missing            MissingSet
}

// MissingSet records which fields of a LiveInputs value could not be
// populated because their backing collector value was stale or had never
// reported, per spec.md §4.3. A nil or empty set means every field this
// snapshot carries is fresh.
type MissingSet map[string]bool

// Has reports whether field could not be populated for this evaluation.
func (m MissingSet) Has(field string) bool { return m[field] }

// CollectorStale is returned by a sensor node whose backing field is in
// the current evaluation's MissingSet, per spec.md §7's CollectorStale
// taxonomy entry ("surfaces as EvalError at the node that needed it").
type CollectorStale struct {
	Field string
}

func (e *CollectorStale) Error() string {
	return fmt.Sprintf("collector value for %q is stale or absent", e.Field)
}
