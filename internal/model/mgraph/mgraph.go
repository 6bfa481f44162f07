// Package mgraph defines the persisted decision-graph ("nodeset").
// Grounded on the teacher's mnodemaster.NodeMaster (single-successor flow
// container), generalized to a DAG of GraphNode + Edge with an explicit
// start node and a per-graph evaluation cadence.
package mgraph

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/NotCoffee418/power-control-center/internal/model/medge"
	"github.com/NotCoffee418/power-control-center/internal/model/mnode"
)

// MaxEvaluateEveryMinutes bounds Graph.EvaluateEveryMinutes.
const MaxEvaluateEveryMinutes = 1440

// Graph is a saved decision program: the node/edge set an editor produces
// and the evaluator compiles and runs.
type Graph struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	StartNodeID          string                `json:"startNodeId"`
	Nodes                map[string]mnode.GraphNode `json:"nodes"`
	Edges                []medge.Edge          `json:"edges"`
	EvaluateEveryMinutes int                    `json:"evaluateEveryMinutes"`
}

// Value implements driver.Valuer so a Graph can be stored as the
// nodesets.node_json column, encoded as JSON; Scan below is its inverse.
func (g Graph) Value() (driver.Value, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner for the inverse direction.
func (g *Graph) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("mgraph: unsupported scan source %T", value)
		}
	}
	return json.Unmarshal(b, g)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (mnode.GraphNode, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// EdgesFrom returns every edge whose source is (nodeID, pinID).
func (g *Graph) EdgesFrom(nodeID, pinID string) []medge.Edge {
	var out []medge.Edge
	for _, e := range g.Edges {
		if e.FromNodeID == nodeID && e.FromPinID == pinID {
			out = append(out, e)
		}
	}
	return out
}

// EdgeTo returns the single edge feeding (nodeID, pinID), if any. A
// compiled graph guarantees at most one, since a data pin may only be
// driven by one source.
func (g *Graph) EdgeTo(nodeID, pinID string) (medge.Edge, bool) {
	for _, e := range g.Edges {
		if e.ToNodeID == nodeID && e.ToPinID == pinID {
			return e, true
		}
	}
	return medge.Edge{}, false
}
