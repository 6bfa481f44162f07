// Package sensor implements the LiveInputs-backed built-in nodes: one
// node per field of mliveinputs.LiveInputs, plus the structured
// ActiveCommand node. None take inputs; each simply projects a field of
// the current device's snapshot, grounded on the teacher's
// pkg/nodes/api/api.go pattern of stashing a live value for downstream
// pull rather than performing I/O itself.
package sensor

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mliveinputs"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const PinValue = "value"

const (
	TypeIndoorTemp        = "sensor_indoor_temp"
	TypeOutdoorTemp        = "sensor_outdoor_temp"
	TypeAvgOutdoorNext24h  = "sensor_avg_outdoor_next_24h"
	TypeSolarProductionW   = "sensor_solar_production_w"
	TypeNetPowerW          = "sensor_net_power_w"
	TypeUserIsHome         = "sensor_user_is_home"
	TypePirDetected        = "sensor_pir_detected"
	TypePirMinutesAgo      = "sensor_pir_minutes_ago"
	TypeLastChangeMinutes  = "sensor_last_change_minutes"
	TypeIsAutoMode         = "sensor_is_auto_mode"
)

type simpleSensor struct {
	nodeType     string
	name         string
	description  string
	valueType    mvaluetype.ValueType
	missingField string // key into LiveInputs.Missing; "" if this field has no TTL/staleness concept
	extract      func(mliveinputs.LiveInputs) interface{}
}

var sensors = []simpleSensor{
	{TypeIndoorTemp, "Indoor Temp", "Current indoor temperature in Celsius.", mvaluetype.Float(), "indoor_temp",
		func(li mliveinputs.LiveInputs) interface{} { return li.IndoorTemp }},
	{TypeOutdoorTemp, "Outdoor Temp", "Current outdoor temperature in Celsius.", mvaluetype.Float(), "outdoor_temp",
		func(li mliveinputs.LiveInputs) interface{} { return li.OutdoorTemp }},
	{TypeAvgOutdoorNext24h, "Avg Outdoor Next 24h", "Forecast average outdoor temperature over the next 24 hours.", mvaluetype.Float(), "avg_outdoor_next_24h",
		func(li mliveinputs.LiveInputs) interface{} { return li.AvgOutdoorNext24h }},
	{TypeSolarProductionW, "Solar Production (W)", "Current solar production in watts.", mvaluetype.Integer(), "solar_production_w",
		func(li mliveinputs.LiveInputs) interface{} { return li.SolarProductionW }},
	{TypeNetPowerW, "Net Power (W)", "Current net grid power draw in watts.", mvaluetype.Integer(), "net_power_w",
		func(li mliveinputs.LiveInputs) interface{} { return li.NetPowerW }},
	{TypeUserIsHome, "User Is Home", "Whether the user is currently home.", mvaluetype.Boolean(), "user_is_home",
		func(li mliveinputs.LiveInputs) interface{} { return li.UserIsHome }},
	{TypePirDetected, "PIR Detected", "Whether motion is currently within the PIR lockout window.", mvaluetype.Boolean(), "",
		func(li mliveinputs.LiveInputs) interface{} { return li.PirDetected }},
	{TypePirMinutesAgo, "PIR Minutes Ago", "Minutes since the last PIR detection.", mvaluetype.Integer(), "",
		func(li mliveinputs.LiveInputs) interface{} { return li.PirMinutesAgo }},
	{TypeLastChangeMinutes, "Last Change Minutes", "Minutes since the device's last action.", mvaluetype.Integer(), "",
		func(li mliveinputs.LiveInputs) interface{} { return li.LastChangeMinutes }},
	{TypeIsAutoMode, "Is Auto Mode", "Whether the device is currently in automatic mode.", mvaluetype.Boolean(), "is_auto_mode",
		func(li mliveinputs.LiveInputs) interface{} { return li.IsAutoMode }},
}

func (s simpleSensor) def() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: s.nodeType, Name: s.name, Description: s.description, Category: "Sensors",
		Outputs: []mnode.NodePin{{ID: PinValue, Label: "Value", Type: s.valueType}},
	}
}

// data fails with mliveinputs.CollectorStale instead of projecting the
// field's zero value when this sensor's backing source was stale or
// never reported, per spec.md §4.3/§7.
func (s simpleSensor) data(ctx registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	li := ctx.Inputs()
	if s.missingField != "" && li.Missing.Has(s.missingField) {
		return nil, fmt.Errorf("%s: %w", node.ID, &mliveinputs.CollectorStale{Field: s.missingField})
	}
	return s.extract(li), nil
}

// Register adds this package's node types to r.
func Register(r *registry.Registry) {
	for _, s := range sensors {
		s := s
		r.Register(registry.Registration{Def: s.def(), Data: s.data})
	}
	registerActiveCommand(r)
}
