// Package flow implements the execution-flow built-in nodes: OnEvaluate,
// Branch and SetPlan. Grounded on the teacher's nodemaster.Run/ExecuteNext
// walk (pkg/nodemaster/nodemaster.go), generalized from a flat
// single-successor NextNodeID model to Branch's two outputs and SetPlan's
// branch-terminating semantics.
package flow

import (
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

const TypeOnEvaluate = "flow_on_evaluate"

const PinExecOut = "exec_out"

func onEvaluateDef() mnode.NodeDefinition {
	return mnode.NodeDefinition{
		NodeType:    TypeOnEvaluate,
		Name:        "On Evaluate",
		Description: "Entry point for one tick's evaluation of this device.",
		Category:    "System",
		Outputs: []mnode.NodePin{
			{ID: PinExecOut, Label: "Exec", Type: mvaluetype.Execution()},
		},
	}
}

func onEvaluateFlow(_ registry.FlowContext, _ mnode.GraphNode) (string, bool, error) {
	return PinExecOut, false, nil
}

// Register adds this package's node types to r.
func Register(r *registry.Registry) {
	r.Register(registry.Registration{Def: onEvaluateDef(), Flow: onEvaluateFlow})
	r.Register(registry.Registration{Def: branchDef(), Flow: branchFlow})
	r.Register(registry.Registration{Def: setPlanDef(), Flow: setPlanFlow})
}
