// Package evaluator runs a compiled graph.Program against one device's
// LiveInputs snapshot and produces a Plan, per spec.md §4.2. Grounded on
// the teacher's nodemaster.Run/ExecuteNext loop (pkg/nodemaster/nodemaster.go),
// generalized from its flat single-successor NextNodeID walk to
// Branch's two outputs and a per-evaluation memoized data-pull layer
// (the teacher's equivalent, mnodemaster.NodeMaster.Vars, is scoped per
// process rather than per evaluation).
package evaluator

import (
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/graph"
	"github.com/NotCoffee418/power-control-center/internal/model/mliveinputs"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
)

// ErrCycle is returned when a data pull revisits a pin already on its
// own pull stack (spec.md §4.2 invariant I6).
var ErrCycle = errors.New("evaluator: cycle detected")

// ErrNotWired is returned by PullValue when the requested input pin has
// no incoming edge and thus no value to pull.
var ErrNotWired = errors.New("evaluator: pin is not wired")

// EvalError names the node where evaluation failed, per spec.md §7's
// requirement that EvalError "names the offending node id".
type EvalError struct {
	NodeID string
	Err    error
}

func (e *EvalError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("eval error: %v", e.Err)
	}
	return fmt.Sprintf("eval error at node %s: %v", e.NodeID, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

type pinKey struct {
	nodeID string
	pinID  string
}

// run holds per-evaluation state: the memo map and on-stack set required
// for I6 (memoized pull, cycle detection), plus whatever plan a SetPlan
// terminal records.
type run struct {
	prog    *graph.Program
	inputs  mliveinputs.LiveInputs
	now     time.Time
	memo    map[pinKey]interface{}
	onStack map[pinKey]bool
	plan    mplan.Plan
	planSet bool
}

func (r *run) Inputs() mliveinputs.LiveInputs { return r.inputs }
func (r *run) Now() time.Time                 { return r.now }

func (r *run) SetPlan(p mplan.Plan) {
	if r.planSet {
		// spec.md §4.2: "whichever SetPlan fires first wins" — a later
		// terminal in the same evaluation must not override it.
		return
	}
	r.plan = p
	r.planSet = true
}

// PullValue resolves the current value on the named INPUT pin of nodeID
// by following its incoming edge (if any) to the producing node's output
// and pulling that, memoizing the result by (node,pin).
func (r *run) PullValue(nodeID, pinID string) (interface{}, error) {
	edge, ok := r.prog.Graph.EdgeTo(nodeID, pinID)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", nodeID, pinID, ErrNotWired)
	}
	return r.pullOutput(edge.FromNodeID, edge.FromPinID)
}

func (r *run) pullOutput(nodeID, pinID string) (interface{}, error) {
	key := pinKey{nodeID, pinID}
	if v, ok := r.memo[key]; ok {
		return v, nil
	}
	if r.onStack[key] {
		return nil, fmt.Errorf("%s.%s: %w", nodeID, pinID, ErrCycle)
	}
	r.onStack[key] = true
	defer delete(r.onStack, key)

	node, ok := r.prog.Graph.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("pull %s.%s: node not found", nodeID, pinID)
	}
	reg, ok := r.prog.Registry.Get(node.Type)
	if !ok {
		return nil, fmt.Errorf("pull %s.%s: unknown node type %q", nodeID, pinID, node.Type)
	}
	if reg.Data == nil {
		return nil, fmt.Errorf("pull %s.%s: node type %q has no data output", nodeID, pinID, node.Type)
	}
	v, err := reg.Data(r, node, pinID)
	if err != nil {
		return nil, err
	}
	r.memo[key] = v
	return v, nil
}

// walk executes the flow graph depth-first in declaration order,
// stopping as soon as any branch has recorded a plan.
func (r *run) walk(nodeID string) error {
	if r.planSet {
		return nil
	}
	node, ok := r.prog.Graph.Node(nodeID)
	if !ok {
		return fmt.Errorf("node %s not found", nodeID)
	}
	reg, ok := r.prog.Registry.Get(node.Type)
	if !ok {
		return fmt.Errorf("unknown node type %q", node.Type)
	}
	if reg.Flow == nil {
		return fmt.Errorf("node %s (%s) is not an execution node", nodeID, node.Type)
	}
	nextPin, terminated, err := reg.Flow(r, node)
	if err != nil {
		return &EvalError{NodeID: nodeID, Err: err}
	}
	if terminated {
		return nil
	}
	for _, e := range r.prog.Graph.EdgesFrom(nodeID, nextPin) {
		if r.planSet {
			break
		}
		if err := r.walk(e.ToNodeID); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs prog against inputs and returns the resulting Plan. If no
// SetPlan terminal executes, the result is mplan.Undefined() per
// spec.md §4.2's cause-attribution rule.
func Evaluate(prog *graph.Program, inputs mliveinputs.LiveInputs, now time.Time) (mplan.Plan, *EvalError) {
	r := &run{
		prog:    prog,
		inputs:  inputs,
		now:     now,
		memo:    make(map[pinKey]interface{}),
		onStack: make(map[pinKey]bool),
	}
	if err := r.walk(prog.Graph.StartNodeID); err != nil {
		var evalErr *EvalError
		if errors.As(err, &evalErr) {
			return mplan.Plan{}, evalErr
		}
		return mplan.Plan{}, &EvalError{NodeID: prog.Graph.StartNodeID, Err: err}
	}
	if !r.planSet {
		return mplan.Undefined(), nil
	}
	return r.plan, nil
}
