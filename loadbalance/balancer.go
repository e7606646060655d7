// Package loadbalance picks one axon out of several that serve the same synapse.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity axons
//   - WeightedRandom:  axons weighted by hotkey (stake, capacity)
//   - ConsistentHash:  requests keyed to the same axon while the set is stable
package loadbalance

import (
	"errors"

	"github.com/0xxfu/bittensor/synapse"
)

var ErrNoAxons = errors.New("loadbalance: no axons available")

// Balancer is called before a query to choose its target. Pick must be
// goroutine-safe.
type Balancer interface {
	Pick(axons []synapse.AxonInfo) (synapse.AxonInfo, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// New returns the strategy called name: "roundrobin", "random" or "hash". key only
// matters for "hash".
func New(name string, weights map[string]int, key string) (Balancer, error) {
	switch name {
	case "roundrobin", "":
		return &RoundRobinBalancer{}, nil
	case "random":
		return &WeightedRandomBalancer{Weights: weights}, nil
	case "hash":
		return &KeyedBalancer{Key: key}, nil
	}
	return nil, errors.New("loadbalance: unknown strategy " + name)
}
