package layer

import (
	"time"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// PolicyEngine maps echo age onto its retention layer. It is pure
// configuration: no state, safe for concurrent use.
//
// Transitions are strictly forward. Weight and resonance never move an echo
// back to a hotter layer; age is the only input.
type PolicyEngine struct {
	cfg config.LayersConfig
}

// NewPolicyEngine creates a policy engine from the layer configuration.
func NewPolicyEngine(cfg config.LayersConfig) *PolicyEngine {
	return &PolicyEngine{cfg: cfg}
}

// LayerFor returns the layer an echo of the given age belongs to.
func (p *PolicyEngine) LayerFor(age time.Duration) types.Layer {
	b := p.cfg.Boundaries
	switch {
	case age < b.Immediate.Duration():
		return types.LayerImmediate
	case age < b.Recent.Duration():
		return types.LayerRecent
	case age < b.Deep.Duration():
		return types.LayerDeep
	case age < b.Ancient.Duration():
		return types.LayerAncient
	default:
		return types.LayerEternal
	}
}

// LayerAt returns the layer for an echo created at createdAt, observed at now.
// A clock skew that makes createdAt sit in the future clamps to immediate.
func (p *PolicyEngine) LayerAt(createdAt, now time.Time) types.Layer {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return p.LayerFor(age)
}

// CapacityFor returns the configured population limit of a layer.
// 0 means unbounded; eternal is unbounded under default configuration.
func (p *PolicyEngine) CapacityFor(l types.Layer) int {
	c := p.cfg.Capacities
	switch l {
	case types.LayerImmediate:
		return c.Immediate
	case types.LayerRecent:
		return c.Recent
	case types.LayerDeep:
		return c.Deep
	case types.LayerAncient:
		return c.Ancient
	case types.LayerEternal:
		return c.Eternal
	default:
		return 0
	}
}
