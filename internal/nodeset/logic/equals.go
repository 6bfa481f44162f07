package logic

import (
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const TypeEquals = "logic_equals"

func equalsDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeEquals,
		Name:        "Equals",
		Description: "True iff a and b are equal. Numeric comparisons use strict IEEE semantics; NaN is never equal.",
		Category:    "Logic",
		Inputs: []mnode.NodePin{
			{ID: PinA, Label: "A", Type: mvaluetype.Any(), Required: true},
			{ID: PinB, Label: "B", Type: mvaluetype.Any(), Required: true},
		},
		Outputs: []mnode.NodePin{
			{ID: PinOut, Label: "Result", Type: mvaluetype.Boolean()},
		},
	}
}

// equalsData mirrors the teacher's ConditionExpression pattern
// (gval.Evaluate(expr, vars)) for a two-operand comparison rather than
// comparing in Go directly, keeping Equals and EvaluateNumber on one
// code path.
func equalsData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	a, err := ctx.PullValue(node.ID, PinA)
	if err != nil {
		return nil, fmt.Errorf("%s.a: %w", node.ID, err)
	}
	b, err := ctx.PullValue(node.ID, PinB)
	if err != nil {
		return nil, fmt.Errorf("%s.b: %w", node.ID, err)
	}

	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		if math.IsNaN(af) || math.IsNaN(bf) {
			return false, nil
		}
		result, err := gval.Evaluate("a == b", map[string]interface{}{"a": af, "b": bf})
		if err != nil {
			return nil, fmt.Errorf("%s: evaluate: %w", node.ID, err)
		}
		return result, nil
	}

	result, err := gval.Evaluate("a == b", map[string]interface{}{"a": a, "b": b})
	if err != nil {
		return nil, fmt.Errorf("%s: evaluate: %w", node.ID, err)
	}
	return result, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
