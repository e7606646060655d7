package loadbalance

import (
	"sync/atomic"

	"github.com/0xxfu/bittensor/synapse"
)

// RoundRobinBalancer cycles through the axons in order. The counter is atomic, so
// Pick takes no lock.
type RoundRobinBalancer struct {
	counter atomic.Int64
}

func (b *RoundRobinBalancer) Pick(axons []synapse.AxonInfo) (synapse.AxonInfo, error) {
	if len(axons) == 0 {
		return synapse.AxonInfo{}, ErrNoAxons
	}
	index := (b.counter.Add(1) - 1) % int64(len(axons))
	return axons[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
