// Package device implements the device/enum constant built-in nodes:
// DeviceConst, IntensityConst, ModeConst, and the supplemental
// FanSpeedConst (see DESIGN.md / SPEC_FULL.md §15).
package device

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const (
	TypeDeviceConst    = "device_const"
	TypeIntensityConst = "device_intensity_const"
	TypeModeConst      = "device_mode_const"
	TypeFanSpeedConst  = "device_fan_speed_const"

	PinValue = "value"
)

// DeviceConst's value type is String, not a fixed Enum, since the
// configured device list is a runtime config concern — see
// flow.setPlanDef's PinDevice for the same reasoning.
func deviceConstDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeDeviceConst, Name: "Device", Category: "Enums",
		Description: "A literal device identifier. Not checked against the configured device list at compile time; SetPlan rejects it at evaluation time unless it names the device being evaluated.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.StringT()}},
	}
}

func deviceConstData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: missing device literal", node.ID)
	}
	return v, nil
}

func intensityConstDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeIntensityConst, Name: "Intensity", Category: "Enums",
		Description: "A literal Low/Medium/High intensity selection for Colder/Warmer plans.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Enum("Low", "Medium", "High")}},
	}
}

func intensityConstData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: missing intensity literal", node.ID)
	}
	switch v {
	case "Low", "Medium", "High":
		return v, nil
	default:
		return nil, fmt.Errorf("%s: invalid intensity literal %q", node.ID, v)
	}
}

func modeConstDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeModeConst, Name: "Plan Mode", Category: "Enums",
		Description: "A literal Colder/Warmer/Off/NoChange selection.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Enum("Colder", "Warmer", "Off", "NoChange")}},
	}
}

func modeConstData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: missing mode literal", node.ID)
	}
	switch v {
	case "Colder", "Warmer", "Off", "NoChange":
		return v, nil
	default:
		return nil, fmt.Errorf("%s: invalid mode literal %q", node.ID, v)
	}
}

// fanSpeedConstDef is the supplemental named fan-speed constant (see
// SPEC_FULL.md §15 / DESIGN.md): distinct from IntensityConst, for graphs
// wiring SetPlan's optional fan_speed override pin directly. Its output
// pin type is Integer, not EnumWithIDs: spec.md §9 open question (ii)
// keeps storage as a plain integer (0=Auto), and SetPlan.fan_speed is
// declared Integer, so this node must produce the same concrete type to
// unify with it. fanSpeedOptions is still exposed for an editor's
// dropdown labels; it plays no role in evaluation.
func fanSpeedConstDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeFanSpeedConst, Name: "Fan Speed", Category: "Enums",
		Description: "A literal fan speed selection (0=Auto, 1-5=explicit speed).",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Integer()}},
	}
}

// fanSpeedOptions labels the integer values 0-5 for an editor's dropdown.
var fanSpeedOptions = []mvaluetype.EnumOption{
	{ID: "0", Label: "Auto"},
	{ID: "1", Label: "Low"},
	{ID: "2", Label: "Medium-Low"},
	{ID: "3", Label: "Medium"},
	{ID: "4", Label: "Medium-High"},
	{ID: "5", Label: "High"},
}

func fanSpeedConstData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data["value"]
	if !ok {
		return nil, fmt.Errorf("%s: missing fan speed literal", node.ID)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return nil, fmt.Errorf("%s: fan speed literal is not an integer, got %T", node.ID, v)
	}
}

// Register adds this package's node types to r.
func Register(r *registry.Registry) {
	r.Register(registry.Registration{Def: deviceConstDef(), Data: deviceConstData})
	r.Register(registry.Registration{Def: intensityConstDef(), Data: intensityConstData})
	r.Register(registry.Registration{Def: modeConstDef(), Data: modeConstData})
	r.Register(registry.Registration{Def: fanSpeedConstDef(), Data: fanSpeedConstData})
}
