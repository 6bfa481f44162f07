// Package graph compiles and validates a saved decision graph into a
// Program the evaluator can run, per spec.md §4.1. Grounded on the
// teacher's loose mnodemaster.NodeMaster (no up-front validation pass —
// node-not-found errors surfaced only at run time via
// nodemaster.ErrNodeNotFound); generalized here into an eager,
// all-violations-at-once compile step per spec.md §4.1's "accumulate
// every offending node in one round-trip" contract.
package graph

import (
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/mgraph"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
	"github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"
	"github.com/NotCoffee418/power-control-center/internal/nodeset"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/flow"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/logic"
)

// Violation is one compile-time defect found in a graph.
type Violation struct {
	NodeID  string
	EdgeID  string
	Message string
}

// GraphErr is the accumulated set of violations found while compiling a
// graph. It implements error so callers that don't care about the
// structured detail can still treat it as a plain error.
type GraphErr struct {
	Violations []Violation
}

func (e *GraphErr) Error() string {
	if len(e.Violations) == 0 {
		return "graph: invalid (no violations recorded)"
	}
	return fmt.Sprintf("graph: %d violation(s), first: %s", len(e.Violations), e.Violations[0].Message)
}

func (e *GraphErr) add(v Violation) {
	e.Violations = append(e.Violations, v)
}

// Program is a graph that has passed Compile and is safe to evaluate.
type Program struct {
	Graph    *mgraph.Graph
	Registry *nodeset.Registry
}

// Compile validates g against registry and, if it passes, returns a
// Program. Every check below runs even after an earlier one finds a
// violation (within reason — a node whose type is unknown is skipped for
// the pin-level checks that depend on its definition, since there is
// nothing to check against).
func Compile(g *mgraph.Graph, registry *nodeset.Registry) (*Program, *GraphErr) {
	gerr := &GraphErr{}

	for id, n := range g.Nodes {
		if n.ID != id {
			gerr.add(Violation{NodeID: id, Message: fmt.Sprintf("node map key %q does not match node.ID %q", id, n.ID)})
		}
	}

	defs := make(map[string]mnode.NodeDefinition, len(g.Nodes))
	for id, n := range g.Nodes {
		reg, ok := registry.Get(n.Type)
		if !ok {
			gerr.add(Violation{NodeID: id, Message: fmt.Sprintf("unknown node type %q", n.Type)})
			continue
		}
		defs[id] = reg.Def
		inputs := mnode.EffectiveInputs(reg.Def, n)
		if isDynamicArity(reg.Def) && len(inputs) < 2 {
			gerr.add(Violation{NodeID: id, Message: "dynamic-arity node must retain at least 2 inputs"})
		}
	}

	driven := make(map[[2]string]string) // (node, data input pin) -> first edge id
	for _, e := range g.Edges {
		fromNode, fromOK := g.Nodes[e.FromNodeID]
		toNode, toOK := g.Nodes[e.ToNodeID]
		if !fromOK {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("edge references unknown source node %q", e.FromNodeID)})
			continue
		}
		if !toOK {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("edge references unknown target node %q", e.ToNodeID)})
			continue
		}
		fromDef, ok := defs[fromNode.ID]
		if !ok {
			continue // unknown node type already reported
		}
		toDef, ok := defs[toNode.ID]
		if !ok {
			continue
		}
		fromPin, ok := fromDef.OutputByID(e.FromPinID)
		if !ok {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("source node %q has no output pin %q", fromNode.ID, e.FromPinID)})
			continue
		}
		toPin, ok := findInput(mnode.EffectiveInputs(toDef, toNode), e.ToPinID)
		if !ok {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("target node %q has no input pin %q", toNode.ID, e.ToPinID)})
			continue
		}
		if !fromPin.Type.Unifies(toPin.Type) {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("type mismatch: %s -> %s", fromPin.Type, toPin.Type)})
		} else if !toPin.AllowsKind(fromPin.Type.Kind) {
			gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("pin %q only accepts %v, got %s", toPin.ID, toPin.AllowedKinds, fromPin.Type.Kind)})
		}
		if toPin.Type.Kind != mvaluetype.KindExecution {
			key := [2]string{toNode.ID, e.ToPinID}
			if prev, dup := driven[key]; dup {
				gerr.add(Violation{EdgeID: e.ID, Message: fmt.Sprintf("input pin %q of node %q is already driven by edge %q", e.ToPinID, toNode.ID, prev)})
			} else {
				driven[key] = e.ID
			}
		}
	}

	startCount := 0
	for id, n := range g.Nodes {
		if n.Type == flow.TypeOnEvaluate {
			startCount++
			if id != g.StartNodeID {
				gerr.add(Violation{NodeID: id, Message: "OnEvaluate node id does not match graph.StartNodeID"})
			}
		}
	}
	switch {
	case startCount == 0:
		gerr.add(Violation{Message: "graph has no OnEvaluate node"})
	case startCount > 1:
		gerr.add(Violation{Message: fmt.Sprintf("graph has %d OnEvaluate nodes, expected exactly 1", startCount)})
	}

	if g.EvaluateEveryMinutes < 0 || g.EvaluateEveryMinutes > mgraph.MaxEvaluateEveryMinutes {
		gerr.add(Violation{Message: fmt.Sprintf("evaluateEveryMinutes %d out of range [0,%d]", g.EvaluateEveryMinutes, mgraph.MaxEvaluateEveryMinutes)})
	}

	if len(gerr.Violations) > 0 {
		return nil, gerr
	}
	return &Program{Graph: g, Registry: registry}, nil
}

func findInput(pins []mnode.NodePin, id string) (mnode.NodePin, bool) {
	for _, p := range pins {
		if p.ID == id {
			return p, true
		}
	}
	return mnode.NodePin{}, false
}

func isDynamicArity(def mnode.NodeDefinition) bool {
	switch def.NodeType {
	case logic.TypeAnd, logic.TypeOr, logic.TypeNand:
		return true
	default:
		return false
	}
}
