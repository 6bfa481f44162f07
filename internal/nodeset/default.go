package nodeset

import (
	"github.com/NotCoffee418/power-control-center/internal/nodeset/device"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/flow"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/logic"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/primitive"
	"github.com/NotCoffee418/power-control-center/internal/nodeset/sensor"
)

// NewDefault builds a fresh registry containing every built-in node
// type. Built as an explicit constructor rather than package init()
// side effects (the teacher's resolver.ResolveNodeFunc is a plain
// switch with no init magic either) so tests can build independent
// registries without import-order surprises.
func NewDefault() *Registry {
	r := New()
	flow.Register(r)
	logic.Register(r)
	primitive.Register(r)
	sensor.Register(r)
	device.Register(r)
	return r
}
