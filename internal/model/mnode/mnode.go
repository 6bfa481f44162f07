// Package mnode defines node pins, node definitions and the graph-node
// instances that reference them. Grounded on the teacher's mnode.Node
// (pkg/model/mnode/mnode.go), generalized from a bare Type/Data pair to a
// strongly typed pin inventory.
package mnode

import "github.com/NotCoffee418/power-control-center/internal/model/mvaluetype"

// NodePin describes one input or output port of a node definition.
// AllowedKinds narrows an Any-typed pin to a specific subset of kinds
// (e.g. EvaluateNumber's A/B pins accept only Float and Integer): Any
// itself unifies with everything, so the pin, not the value type, is
// where a per-node restriction like this belongs. Empty means no
// restriction beyond what Type.Unifies already enforces.
type NodePin struct {
	ID           string               `json:"id"`
	Label        string               `json:"label"`
	Description  string               `json:"description"`
	Type         mvaluetype.ValueType `json:"valueType"`
	Required     bool                 `json:"required"`
	AllowedKinds []mvaluetype.Kind    `json:"allowedKinds,omitempty"`
}

// AllowsKind reports whether other may be wired into this pin, given its
// AllowedKinds restriction. A pin with no restriction allows anything its
// Type.Unifies already allows.
func (p NodePin) AllowsKind(other mvaluetype.Kind) bool {
	if len(p.AllowedKinds) == 0 {
		return true
	}
	for _, k := range p.AllowedKinds {
		if k == other {
			return true
		}
	}
	return false
}

// NodeDefinition is the static shape of a node type: what it's called,
// where it sits in the palette, and its base pin inventory. Dynamic-arity
// nodes (And/Or/Nand) add pins beyond this base set per graph instance via
// GraphNode.DynamicInputs.
type NodeDefinition struct {
	NodeType    string    `json:"nodeType"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Inputs      []NodePin `json:"inputs"`
	Outputs     []NodePin `json:"outputs"`
}

// InputByID returns the base input pin with the given id, or false.
func (d NodeDefinition) InputByID(id string) (NodePin, bool) {
	for _, p := range d.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return NodePin{}, false
}

// OutputByID returns the base output pin with the given id, or false.
func (d NodeDefinition) OutputByID(id string) (NodePin, bool) {
	for _, p := range d.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return NodePin{}, false
}

// GraphNode is one placed instance of a node type within a saved graph.
// Data holds the node's literal configuration (constant values, the
// comparison op for EvaluateNumber, and so on) under node-type-specific
// keys such as "value" or "op"; these are not input pin ids.
type GraphNode struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Data          map[string]interface{} `json:"data"`
	DynamicInputs []NodePin              `json:"dynamicInputs,omitempty"`
}

// EffectiveInputs returns the definition's base inputs plus this node's
// dynamic inputs, per spec's "effective inputs = definition inputs ∪
// data.dynamic_inputs" rule.
func EffectiveInputs(def NodeDefinition, n GraphNode) []NodePin {
	if len(n.DynamicInputs) == 0 {
		return def.Inputs
	}
	out := make([]NodePin, 0, len(def.Inputs)+len(n.DynamicInputs))
	out = append(out, def.Inputs...)
	out = append(out, n.DynamicInputs...)
	return out
}
