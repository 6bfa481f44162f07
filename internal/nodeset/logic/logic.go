// Package logic implements the Boolean built-in nodes: And, Or, Nand,
// Not, Equals and EvaluateNumber. And/Or/Nand are dynamic-arity per
// spec.md §4.1 ("logic AND/OR/NAND may add homogeneous Boolean inputs
// beyond the base two"); grounded on the teacher's
// pkg/nodes/nodecondition/condition.go gval expression pattern for
// Equals/EvaluateNumber.
package logic

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const (
	TypeAnd  = "logic_and"
	TypeOr   = "logic_or"
	TypeNand = "logic_nand"
	TypeNot  = "logic_not"

	PinOut = "out"
	PinIn  = "in"
	PinA   = "a"
	PinB   = "b"
)

// dynamicArityInputIDs returns the effective input pin ids for a
// dynamic-arity Boolean node: two base inputs ("in0","in1") plus whatever
// the graph added via DynamicInputs. Invariant I (spec.md §4.1): at
// least two inputs.
func dynamicArityInputIDs(node mnode.GraphNode) []string {
	if len(node.DynamicInputs) == 0 {
		return []string{"in0", "in1"}
	}
	ids := make([]string, 0, len(node.DynamicInputs))
	for _, p := range node.DynamicInputs {
		ids = append(ids, p.ID)
	}
	return ids
}

func pullBools(ctx registry.PullContext, node mnode.GraphNode) ([]bool, error) {
	ids := dynamicArityInputIDs(node)
	out := make([]bool, 0, len(ids))
	for _, id := range ids {
		v, err := ctx.PullValue(node.ID, id)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", node.ID, id, err)
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%s.%s: expected bool, got %T", node.ID, id, v)
		}
		out = append(out, b)
	}
	return out, nil
}

func dynamicArityDef(nodeType, name, description string) mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    nodeType,
		Name:        name,
		Description: description,
		Category:    "Logic",
		Inputs: []mnode.NodePin{
			{ID: "in0", Label: "A", Type: mvaluetype.Boolean(), Required: true},
			{ID: "in1", Label: "B", Type: mvaluetype.Boolean(), Required: true},
		},
		Outputs: []mnode.NodePin{
			{ID: PinOut, Label: "Result", Type: mvaluetype.Boolean()},
		},
	}
}

func andData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	bools, err := pullBools(ctx, node)
	if err != nil {
		return nil, err
	}
	for _, b := range bools {
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func orData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	bools, err := pullBools(ctx, node)
	if err != nil {
		return nil, err
	}
	for _, b := range bools {
		if b {
			return true, nil
		}
	}
	return false, nil
}

func nandData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	v, err := andData(ctx, node, pinID)
	if err != nil {
		return nil, err
	}
	return !v.(bool), nil
}

func notDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeNot,
		Name:        "Not",
		Description: "Boolean negation.",
		Category:    "Logic",
		Inputs: []mnode.NodePin{
			{ID: PinIn, Label: "In", Type: mvaluetype.Boolean(), Required: true},
		},
		Outputs: []mnode.NodePin{
			{ID: PinOut, Label: "Result", Type: mvaluetype.Boolean()},
		},
	}
}

func notData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	v, err := ctx.PullValue(node.ID, PinIn)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", node.ID, PinIn, err)
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%s.%s: expected bool, got %T", node.ID, PinIn, v)
	}
	return !b, nil
}

// Register adds this package's node types to r.
func Register(r *registry.Registry) {
	r.Register(registry.Registration{Def: dynamicArityDef(TypeAnd, "And", "True iff every input is true."), Data: andData})
	r.Register(registry.Registration{Def: dynamicArityDef(TypeOr, "Or", "True iff at least one input is true."), Data: orData})
	r.Register(registry.Registration{Def: dynamicArityDef(TypeNand, "Nand", "False iff every input is true."), Data: nandData})
	r.Register(registry.Registration{Def: notDef(), Data: notData})
	r.Register(registry.Registration{Def: equalsDef(), Data: equalsData})
	r.Register(registry.Registration{Def: evaluateNumberDef(), Data: evaluateNumberData})
}
