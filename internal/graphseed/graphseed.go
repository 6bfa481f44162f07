// Package graphseed builds the bootstrap nodeset a fresh installation
// starts with: an ice-exception graph that branches on the outdoor
// temperature alone (no PIR inputs), so `graphstore` has something to
// load before an operator has authored their first nodeset. Node and
// edge ids are generated with google/uuid.NewString rather than
// pkg/idgen's ULIDs (which internal/actionlog uses for its persisted
// rows): a nodeset's internal node/edge ids are graph-scoped rather than
// sortable-by-time, so a plain random UUID fits better here.
package graphseed

import (
	"github.com/google/uuid"

	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
	"github.com/NotCoffee418/power-control-center/internal/model/medge"
	"github.com/NotCoffee418/power-control-center/internal/model/mgraph"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/device"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/flow"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/logic"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/primitive"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/sensor"
)

func id() string { return uuid.NewString() }

// IceException builds a graph for device that forces the unit Off
// whenever the outdoor temperature drops below coldThresholdC (the
// "icing risk" cause, mcause.IceException), and leaves the plan
// unchanged otherwise. It compiles cleanly against nodeset.NewDefault().
func IceException(device_, name string, coldThresholdC float64) *mgraph.Graph {
	startID := id()
	branchID := id()
	outdoorSensorID := id()
	thresholdID := id()
	cmpID := id()
	deviceConstID := id()

	modeOffID := id()
	causeIceID := id()
	setOffID := id()

	modeNoChangeID := id()
	causeUndefinedID := id()
	setNoChangeID := id()

	nodes := map[string]mnode.GraphNode{
		startID: {ID: startID, Type: flow.TypeOnEvaluate},
		branchID: {ID: branchID, Type: flow.TypeBranch},
		outdoorSensorID: {ID: outdoorSensorID, Type: sensor.TypeOutdoorTemp},
		thresholdID: {ID: thresholdID, Type: primitive.TypeFloat, Data: map[string]interface{}{
			primitive.DataKeyValue: coldThresholdC,
		}},
		cmpID: {ID: cmpID, Type: logic.TypeEvaluateNumber, Data: map[string]interface{}{
			logic.DataKeyOp: "<",
		}},
		deviceConstID: {ID: deviceConstID, Type: device.TypeDeviceConst, Data: map[string]interface{}{
			"value": device_,
		}},

		modeOffID: {ID: modeOffID, Type: device.TypeModeConst, Data: map[string]interface{}{"value": "Off"}},
		causeIceID: {ID: causeIceID, Type: primitive.TypeCauseReason, Data: map[string]interface{}{
			"id": mcause.IceException, "label": "Ice Exception",
			"description": "Outdoor temperature low enough that cooling risks icing the unit.",
		}},
		setOffID: {ID: setOffID, Type: flow.TypeSetPlan},

		modeNoChangeID: {ID: modeNoChangeID, Type: device.TypeModeConst, Data: map[string]interface{}{"value": "NoChange"}},
		causeUndefinedID: {ID: causeUndefinedID, Type: primitive.TypeCauseReason, Data: map[string]interface{}{
			"id": mcause.Undefined, "label": "Undefined",
			"description": "No SetPlan node fired during evaluation.",
		}},
		setNoChangeID: {ID: setNoChangeID, Type: flow.TypeSetPlan},
	}

	edges := []medge.Edge{
		{ID: id(), FromNodeID: startID, FromPinID: flow.PinExecOut, ToNodeID: branchID, ToPinID: flow.PinExecIn},
		{ID: id(), FromNodeID: outdoorSensorID, FromPinID: sensor.PinValue, ToNodeID: cmpID, ToPinID: logic.PinA},
		{ID: id(), FromNodeID: thresholdID, FromPinID: primitive.PinValue, ToNodeID: cmpID, ToPinID: logic.PinB},
		{ID: id(), FromNodeID: cmpID, FromPinID: logic.PinOut, ToNodeID: branchID, ToPinID: flow.PinCond},

		{ID: id(), FromNodeID: branchID, FromPinID: flow.PinTrueOut, ToNodeID: setOffID, ToPinID: flow.PinExecIn},
		{ID: id(), FromNodeID: modeOffID, FromPinID: device.PinValue, ToNodeID: setOffID, ToPinID: flow.PinMode},
		{ID: id(), FromNodeID: deviceConstID, FromPinID: device.PinValue, ToNodeID: setOffID, ToPinID: flow.PinDevice},
		{ID: id(), FromNodeID: causeIceID, FromPinID: primitive.PinValue, ToNodeID: setOffID, ToPinID: flow.PinCause},

		{ID: id(), FromNodeID: branchID, FromPinID: flow.PinFalseOut, ToNodeID: setNoChangeID, ToPinID: flow.PinExecIn},
		{ID: id(), FromNodeID: modeNoChangeID, FromPinID: device.PinValue, ToNodeID: setNoChangeID, ToPinID: flow.PinMode},
		{ID: id(), FromNodeID: deviceConstID, FromPinID: device.PinValue, ToNodeID: setNoChangeID, ToPinID: flow.PinDevice},
		{ID: id(), FromNodeID: causeUndefinedID, FromPinID: primitive.PinValue, ToNodeID: setNoChangeID, ToPinID: flow.PinCause},
	}

	return &mgraph.Graph{
		ID:                   id(),
		Name:                 name,
		StartNodeID:          startID,
		Nodes:                nodes,
		Edges:                edges,
		EvaluateEveryMinutes: 5,
	}
}
