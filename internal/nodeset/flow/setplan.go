package flow

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const TypeSetPlan = "flow_set_plan"

const (
	PinMode      = "mode"
	PinDevice    = "device"
	PinCause     = "cause_reason"
	PinIntensity = "intensity"
	PinFanSpeed  = "fan_speed"
)

func setPlanDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeSetPlan,
		Name:        "Set Plan",
		Description: "Terminal execution node: records the device's Plan for this tick and ends the branch.",
		Category:    "AC Controller",
		Inputs: []mnode.NodePin{
			{ID: PinExecIn, Label: "Exec", Type: mvaluetype.Execution(), Required: true},
			{ID: PinMode, Label: "Mode", Type: mvaluetype.Enum("Colder", "Warmer", "Off", "NoChange"), Required: true},
			// Device pins carry the configured device identifier as a plain
			// string rather than a fixed Enum: the set of devices is a
			// runtime config concern (internal/config), not something a
			// node definition can enumerate at compile time. The graph
			// validator does not check the value; setPlanFlow rejects it at
			// evaluation time unless it names the device being evaluated.
			{ID: PinDevice, Label: "Device", Type: mvaluetype.StringT(), Required: true},
			{ID: PinCause, Label: "Cause", Type: mvaluetype.CauseReason(), Required: true},
			{ID: PinIntensity, Label: "Intensity", Type: mvaluetype.Enum("Low", "Medium", "High"), Required: false},
			{ID: PinFanSpeed, Label: "Fan Speed Override", Type: mvaluetype.Integer(), Required: false},
		},
	}
}

func setPlanFlow(ctx registry.FlowContext, node mnode.GraphNode) (string, bool, error) {
	modeVal, err := ctx.PullValue(node.ID, PinMode)
	if err != nil {
		return "", false, fmt.Errorf("set_plan %s: pull mode: %w", node.ID, err)
	}
	modeStr, ok := modeVal.(string)
	if !ok {
		return "", false, fmt.Errorf("set_plan %s: mode pin did not resolve to string, got %T", node.ID, modeVal)
	}
	var mode mplan.Mode
	switch modeStr {
	case "Colder":
		mode = mplan.ModeColder
	case "Warmer":
		mode = mplan.ModeWarmer
	case "Off":
		mode = mplan.ModeOff
	case "NoChange":
		mode = mplan.ModeNoChange
	default:
		return "", false, fmt.Errorf("set_plan %s: unknown mode value %q", node.ID, modeStr)
	}

	deviceVal, err := ctx.PullValue(node.ID, PinDevice)
	if err != nil {
		return "", false, fmt.Errorf("set_plan %s: pull device: %w", node.ID, err)
	}
	device, ok := deviceVal.(string)
	if !ok {
		return "", false, fmt.Errorf("set_plan %s: device pin did not resolve to string, got %T", node.ID, deviceVal)
	}
	if device != ctx.Inputs().Device {
		return "", false, fmt.Errorf("set_plan %s: device %q does not match the device being evaluated (%q)", node.ID, device, ctx.Inputs().Device)
	}

	causeVal, err := ctx.PullValue(node.ID, PinCause)
	if err != nil {
		return "", false, fmt.Errorf("set_plan %s: pull cause_reason: %w", node.ID, err)
	}
	cause, ok := causeVal.(*mcause.CauseReason)
	if !ok || cause == nil {
		return "", false, fmt.Errorf("set_plan %s: cause_reason pin did not resolve to a cause reason, got %T", node.ID, causeVal)
	}

	plan := mplan.Plan{
		Mode:             mode,
		CauseID:          cause.ID,
		CauseLabel:       cause.Label,
		CauseDescription: cause.Description,
	}

	if intensityVal, err := pullOptionalString(ctx, node.ID, PinIntensity); err != nil {
		return "", false, err
	} else if intensityVal != "" {
		switch intensityVal {
		case "Low":
			plan.Intensity = mplan.IntensityLow
		case "Medium":
			plan.Intensity = mplan.IntensityMedium
		case "High":
			plan.Intensity = mplan.IntensityHigh
		default:
			return "", false, fmt.Errorf("set_plan %s: unknown intensity value %q", node.ID, intensityVal)
		}
	}

	if fanVal, err := ctx.PullValue(node.ID, PinFanSpeed); err == nil {
		if fanInt, ok := fanVal.(int); ok {
			plan.FanSpeedOverride = &fanInt
		}
	}

	ctx.SetPlan(plan)
	return "", true, nil
}

// pullOptionalString pulls a pin that may be unwired; an unwired optional
// pin returns "" rather than an error.
func pullOptionalString(ctx registry.FlowContext, nodeID, pinID string) (string, error) {
	v, err := ctx.PullValue(nodeID, pinID)
	if err != nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: expected string, got %T", nodeID, pinID, v)
	}
	return s, nil
}
