package sensor

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

// TypeActiveCommand is grounded on the original implementation's
// ActiveCommandNode (nodes/flow_nodes.rs): it exposes the device's
// currently cached AcState as individual typed outputs, plus an
// is_defined output confirming whether any command has ever been sent
// (distinct from "is_on=false", which is itself a valid sent state).
const TypeActiveCommand = "sensor_active_command"

const (
	PinIsDefined  = "is_defined"
	PinIsOn       = "is_on"
	PinTemperature = "temperature"
	PinMode        = "mode"
	PinFanSpeed    = "fan_speed"
	PinSwing       = "swing"
	PinPowerful    = "is_powerful"
)

func activeCommandDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeActiveCommand,
		Name:        "Active Command",
		Description: "The device's currently cached AcState, decomposed into individual outputs.",
		Category:    "Sensors",
		Outputs: []mnode.NodePin{
			{ID: PinIsDefined, Label: "Is Defined", Type: mvaluetype.Boolean()},
			{ID: PinIsOn, Label: "Is On", Type: mvaluetype.Boolean()},
			{ID: PinTemperature, Label: "Temperature", Type: mvaluetype.Float()},
			{ID: PinMode, Label: "Mode", Type: mvaluetype.Enum("Heat", "Cool", "Off")},
			{ID: PinFanSpeed, Label: "Fan Speed", Type: mvaluetype.Integer()},
			{ID: PinSwing, Label: "Swing", Type: mvaluetype.Integer()},
			{ID: PinPowerful, Label: "Is Powerful", Type: mvaluetype.Boolean()},
		},
	}
}

func activeCommandData(ctx registry.PullContext, _ mnode.GraphNode, pinID string) (interface{}, error) {
	cmd := ctx.Inputs().ActiveCommand
	if pinID == PinIsDefined {
		return cmd != nil, nil
	}
	if cmd == nil {
		switch pinID {
		case PinIsOn:
			return false, nil
		case PinTemperature:
			return 0.0, nil
		case PinMode:
			return "Off", nil
		case PinFanSpeed, PinSwing:
			return 0, nil
		case PinPowerful:
			return false, nil
		}
		return nil, fmt.Errorf("active_command: unknown pin %q", pinID)
	}
	switch pinID {
	case PinIsOn:
		return cmd.IsOn, nil
	case PinTemperature:
		return cmd.Temperature, nil
	case PinMode:
		switch int(cmd.Mode) {
		case 1:
			return "Heat", nil
		case 4:
			return "Cool", nil
		default:
			return "Off", nil
		}
	case PinFanSpeed:
		return cmd.FanSpeed, nil
	case PinSwing:
		return cmd.Swing, nil
	case PinPowerful:
		return cmd.Powerful, nil
	}
	return nil, fmt.Errorf("active_command: unknown pin %q", pinID)
}

func registerActiveCommand(r *registry.Registry) {
	r.Register(registry.Registration{Def: activeCommandDef(), Data: activeCommandData})
}
