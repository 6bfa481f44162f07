package flow

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const TypeBranch = "flow_branch"

const (
	PinCond      = "cond"
	PinExecIn    = "exec_in"
	PinTrueOut   = "true"
	PinFalseOut  = "false"
)

func branchDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeBranch,
		Name:        "Branch",
		Description: "Follows exactly one of its two outputs based on cond.",
		Category:    "Logic",
		Inputs: []mnode.NodePin{
			{ID: PinExecIn, Label: "Exec", Type: mvaluetype.Execution(), Required: true},
			{ID: PinCond, Label: "Condition", Type: mvaluetype.Boolean(), Required: true},
		},
		Outputs: []mnode.NodePin{
			{ID: PinTrueOut, Label: "True", Type: mvaluetype.Execution()},
			{ID: PinFalseOut, Label: "False", Type: mvaluetype.Execution()},
		},
	}
}

func branchFlow(ctx registry.FlowContext, node mnode.GraphNode) (string, bool, error) {
	v, err := ctx.PullValue(node.ID, PinCond)
	if err != nil {
		return "", false, fmt.Errorf("branch %s: pull cond: %w", node.ID, err)
	}
	cond, ok := v.(bool)
	if !ok {
		return "", false, fmt.Errorf("branch %s: cond pin did not resolve to bool, got %T", node.ID, v)
	}
	if cond {
		return PinTrueOut, false, nil
	}
	return PinFalseOut, false, nil
}
