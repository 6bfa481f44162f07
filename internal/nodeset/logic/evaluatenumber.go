package logic

import (
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const TypeEvaluateNumber = "logic_evaluate_number"

// DataKeyOp is not a wired pin: the comparison operator is a literal choice
// baked into the node at edit time (node.Data["op"]), the same way the
// teacher's NodeConditionExpressionData bakes its Expression string.
const DataKeyOp = "op"

// numericKinds is the allowed-kinds restriction on EvaluateNumber's A/B
// pins: they're typed Any so Integer and Float can both wire in, but
// nothing else should compile, per spec.md §4.1.
var numericKinds = []mvaluetype.Kind{mvaluetype.KindFloat, mvaluetype.KindInteger}

func evaluateNumberDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeEvaluateNumber,
		Name:        "Evaluate Number",
		Description: "Compares a op b where op is one of < ≤ = ≥ >. Integer/Float mixing promotes to Float for the comparison only; NaN never compares true.",
		Category:    "Logic",
		Inputs: []mnode.NodePin{
			{ID: PinA, Label: "A", Type: mvaluetype.Any(), Required: true, AllowedKinds: numericKinds},
			{ID: PinB, Label: "B", Type: mvaluetype.Any(), Required: true, AllowedKinds: numericKinds},
		},
		Outputs: []mnode.NodePin{
			{ID: PinOut, Label: "Result", Type: mvaluetype.Boolean()},
		},
	}
}

var gvalOps = map[string]string{
	"<":  "a < b",
	"<=": "a <= b",
	"=":  "a == b",
	">=": "a >= b",
	">":  "a > b",
}

func evaluateNumberData(ctx registry.PullContext, node mnode.GraphNode, pinID string) (interface{}, error) {
	a, err := ctx.PullValue(node.ID, PinA)
	if err != nil {
		return nil, fmt.Errorf("%s.a: %w", node.ID, err)
	}
	b, err := ctx.PullValue(node.ID, PinB)
	if err != nil {
		return nil, fmt.Errorf("%s.b: %w", node.ID, err)
	}

	af, ok := asFloat(a)
	if !ok {
		return nil, fmt.Errorf("%s.a: expected a number, got %T", node.ID, a)
	}
	bf, ok := asFloat(b)
	if !ok {
		return nil, fmt.Errorf("%s.b: expected a number, got %T", node.ID, b)
	}

	if math.IsNaN(af) || math.IsNaN(bf) {
		return false, nil
	}

	opLiteral, _ := node.Data[DataKeyOp].(string)
	expr, ok := gvalOps[opLiteral]
	if !ok {
		return nil, fmt.Errorf("%s: unknown comparison op %q", node.ID, opLiteral)
	}

	result, err := gval.Evaluate(expr, map[string]interface{}{"a": af, "b": bf})
	if err != nil {
		return nil, fmt.Errorf("%s: evaluate: %w", node.ID, err)
	}
	return result, nil
}
