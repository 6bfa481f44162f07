package executor

import (
	"github.com/NotCoffee418/power-control-center/internal/model/macstate"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
)

// PlanToState implements spec.md §4.5's Plan→AcState reference table
// verbatim. prior is the device's current cache entry, consulted only
// for Plan.ModeNoChange's "retain" semantics.
func PlanToState(plan mplan.Plan, prior macstate.AcState) macstate.AcState {
	switch plan.Mode {
	case mplan.ModeNoChange:
		return prior
	case mplan.ModeOff:
		return macstate.AcState{IsOn: false, Mode: macstate.ModeOff}
	case mplan.ModeColder:
		return applyFanOverride(intensityState(macstate.ModeCool, plan.Intensity), plan.FanSpeedOverride)
	case mplan.ModeWarmer:
		return applyFanOverride(intensityState(macstate.ModeHeat, plan.Intensity), plan.FanSpeedOverride)
	default:
		return prior
	}
}

func intensityState(mode macstate.Mode, intensity mplan.Intensity) macstate.AcState {
	if intensity == mplan.IntensityUnset {
		intensity = mplan.IntensityMedium
	}
	state := macstate.AcState{IsOn: true, Mode: mode}
	isHeat := mode == macstate.ModeHeat
	switch intensity {
	case mplan.IntensityLow:
		state.Temperature = pick(isHeat, 19, 26)
		state.FanSpeed = 0
		state.Powerful = false
	case mplan.IntensityMedium:
		state.Temperature = 22
		state.FanSpeed = 0
		state.Powerful = false
	case mplan.IntensityHigh:
		state.Temperature = pick(isHeat, 24, 20)
		state.FanSpeed = 5
		state.Powerful = true
	}
	return state
}

func pick(cond bool, ifTrue, ifFalse float64) float64 {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func applyFanOverride(state macstate.AcState, override *int) macstate.AcState {
	if override != nil {
		state.FanSpeed = *override
	}
	return state
}
