// Package nodeset is the node-type registry: a map from node type string
// to its definition and evaluation functions, directly modeled on the
// teacher's pkg/resolver.ResolveNodeFunc switch generalized to carry both
// a data-pull function and a flow-execute function per node type (flow
// nodes, Branch included, implement the latter; data nodes the former).
//
// The registry primitives themselves live in internal/nodeset/registry so
// that the built-in node-type packages can depend on them without
// importing this package, which depends on those packages to build the
// default registry (see NewDefault). The types below are aliases so
// existing callers can keep referring to them as nodeset.Registry,
// nodeset.PullContext, etc.
package nodeset

import (
	"github.com/NotCoffee418/power-control-center/internal/nodeset/registry"
)

type PullContext = registry.PullContext

type FlowContext = registry.FlowContext

type DataFunc = registry.DataFunc

type FlowFunc = registry.FlowFunc

type Registration = registry.Registration

type Registry = registry.Registry

// New returns an empty registry.
func New() *Registry {
	return registry.New()
}
