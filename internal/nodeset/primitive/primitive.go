// Package primitive implements literal-value built-in nodes: Float,
// Integer, Boolean and CauseReasonConst. Each reads its value from the
// node's Data map rather than a wired input, matching the teacher's
// pattern of baking configuration onto the node (NodeApiRestData,
// NodeConditionExpressionData) instead of modeling constants as wired
// pins.
package primitive

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mcause"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const (
	TypeFloat       = "primitive_float"
	TypeInteger     = "primitive_integer"
	TypeBoolean     = "primitive_boolean"
	TypeCauseReason = "primitive_cause_reason_const"

	PinValue = "value"

	DataKeyValue = "value"
)

func floatDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeFloat, Name: "Float", Category: "Primitives",
		Description: "A literal floating-point constant.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Float()}},
	}
}

func floatData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data[DataKeyValue]
	if !ok {
		return nil, fmt.Errorf("%s: missing literal value", node.ID)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("%s: literal value is not numeric, got %T", node.ID, v)
	}
}

func integerDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeInteger, Name: "Integer", Category: "Primitives",
		Description: "A literal integer constant.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Integer()}},
	}
}

func integerData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data[DataKeyValue]
	if !ok {
		return nil, fmt.Errorf("%s: missing literal value", node.ID)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return nil, fmt.Errorf("%s: literal value is not an integer, got %T", node.ID, v)
	}
}

func booleanDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeBoolean, Name: "Boolean", Category: "Primitives",
		Description: "A literal boolean constant.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.Boolean()}},
	}
}

func booleanData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	v, ok := node.Data[DataKeyValue].(bool)
	if !ok {
		return nil, fmt.Errorf("%s: missing or non-bool literal value", node.ID)
	}
	return v, nil
}

// causeReasonConstDef's Data carries the selected reason's id, label and
// description baked in at edit time (spec.md §4.8: "the CauseReason
// ValueType enumerates (id, label) pairs visible at graph-edit time"),
// so evaluation never needs a live registry lookup.
func causeReasonConstDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType: TypeCauseReason, Name: "Cause Reason", Category: "Primitives",
		Description: "A literal cause-reason selection.",
		Outputs:     []mnode.NodePin{{ID: PinValue, Label: "Value", Type: mvaluetype.CauseReason()}},
	}
}

func causeReasonConstData(_ registry.PullContext, node mnode.GraphNode, _ string) (interface{}, error) {
	id, ok := node.Data["id"].(int)
	if !ok {
		if f, ok := node.Data["id"].(float64); ok {
			id = int(f)
		} else {
			return nil, fmt.Errorf("%s: missing cause reason id", node.ID)
		}
	}
	label, _ := node.Data["label"].(string)
	desc, _ := node.Data["description"].(string)
	return &mcause.CauseReason{ID: id, Label: label, Description: desc}, nil
}

// Register adds this package's node types to r.
func Register(r *registry.Registry) {
	r.Register(registry.Registration{Def: floatDef(), Data: floatData})
	r.Register(registry.Registration{Def: integerDef(), Data: integerData})
	r.Register(registry.Registration{Def: booleanDef(), Data: booleanData})
	r.Register(registry.Registration{Def: causeReasonConstDef(), Data: causeReasonConstData})
}
