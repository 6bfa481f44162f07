// Package macstate defines the AC command/state value and its equality
// rule. Grounded on the original implementation's AcState
// (ac_controller/ac_executor/types.rs), adapted to spec's exact-match
// equality (no temperature tolerance — see DESIGN.md).
package macstate

// Mode is the AC compressor mode.
type Mode int

const (
	ModeOff  Mode = 0
	ModeHeat Mode = 1
	ModeCool Mode = 4
)

// AcCommand / AcState: the concrete, wire-level state of one AC unit.
// FanSpeed is 0-5 with 0 meaning Auto, per spec's documented convention.
type AcState struct {
	IsOn        bool
	Mode        Mode
	Temperature float64
	FanSpeed    int
	Swing       int
	Powerful    bool
}

// Off is the canonical "unit is off" state used to seed a device's first
// cache entry.
func Off() AcState {
	return AcState{IsOn: false, Mode: ModeOff}
}

// Equal implements spec's equality rule: when IsOn is false only IsOn is
// compared, otherwise every field must match exactly.
func (s AcState) Equal(other AcState) bool {
	if s.IsOn != other.IsOn {
		return false
	}
	if !s.IsOn {
		return true
	}
	return s.Mode == other.Mode &&
		s.Temperature == other.Temperature &&
		s.FanSpeed == other.FanSpeed &&
		s.Swing == other.Swing &&
		s.Powerful == other.Powerful
}
