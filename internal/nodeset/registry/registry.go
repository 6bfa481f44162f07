// Package registry holds the node-type registry primitives (PullContext,
// FlowContext, DataFunc, FlowFunc, Registration, Registry). It is split out
// from package nodeset so that the built-in node-type packages
// (nodeset/device, nodeset/flow, ...) can depend on these types without
// importing package nodeset itself, which in turn depends on those
// packages to build the default registry (see nodeset.NewDefault).
package registry

import (
	"time"

	"github.com/NotCoffee418/power-control-center/internal/model/mliveinputs"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
)

// PullContext is what a data-pull node function needs from the evaluator:
// the ability to recursively pull an upstream pin's value (memoized and
// cycle-checked by the evaluator), the live snapshot for the device being
// evaluated, and the current cache entry.
type PullContext interface {
	PullValue(nodeID, pinID string) (interface{}, error)
	Inputs() mliveinputs.LiveInputs
	Now() time.Time
}

// FlowContext extends PullContext with what a flow (execution) node
// needs: the ability to record the plan a SetPlan-style terminal emits.
type FlowContext interface {
	PullContext
	SetPlan(p mplan.Plan)
}

// DataFunc pulls the value on the named output pin of node. Only defined
// for node types that have data outputs.
type DataFunc func(ctx PullContext, node mnode.GraphNode, pinID string) (interface{}, error)

// FlowFunc executes node's side effect (if any) and returns which
// outgoing Execution pin to follow next. terminated is true for nodes
// that end their branch (SetPlan-style terminals) — the caller should not
// look up a next edge in that case.
type FlowFunc func(ctx FlowContext, node mnode.GraphNode) (nextFlowPinID string, terminated bool, err error)

// Registration binds a node type's static definition to its behavior.
type Registration struct {
	Def  mnode.NodeDefinition
	Data DataFunc
	Flow FlowFunc
}

// Registry is the compiled set of known node types.
type Registry struct {
	defs map[string]Registration
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[string]Registration)}
}

// Register adds a node type. Registering the same node type twice panics,
// since that always indicates a programming error in the built-in set.
func (r *Registry) Register(reg Registration) {
	if _, exists := r.defs[reg.Def.NodeType]; exists {
		panic("nodeset: duplicate registration for node type " + reg.Def.NodeType)
	}
	r.defs[reg.Def.NodeType] = reg
}

// Get looks up a node type's registration.
func (r *Registry) Get(nodeType string) (Registration, bool) {
	reg, ok := r.defs[nodeType]
	return reg, ok
}

// Definitions returns every registered node definition, e.g. for
// serving the palette to an editor UI.
func (r *Registry) Definitions() []mnode.NodeDefinition {
	out := make([]mnode.NodeDefinition, 0, len(r.defs))
	for _, reg := range r.defs {
		out = append(out, reg.Def)
	}
	return out
}
