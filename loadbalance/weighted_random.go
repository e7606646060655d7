package loadbalance

import (
	"math/rand/v2"

	"github.com/0xxfu/bittensor/synapse"
)

// WeightedRandomBalancer picks an axon with probability proportional to its weight.
// Axons missing from Weights weigh 1; a non-positive weight excludes the axon.
type WeightedRandomBalancer struct {
	Weights map[string]int // hotkey -> weight
}

func (b *WeightedRandomBalancer) weight(axon synapse.AxonInfo) int {
	w, ok := b.Weights[axon.Hotkey]
	if !ok {
		return 1
	}
	return max(w, 0)
}

func (b *WeightedRandomBalancer) Pick(axons []synapse.AxonInfo) (synapse.AxonInfo, error) {
	// 计算总权重
	totalWeight := 0
	for _, a := range axons {
		totalWeight += b.weight(a)
	}
	if totalWeight == 0 {
		return synapse.AxonInfo{}, ErrNoAxons
	}

	// 生成一个随机数，范围是0到总权重
	r := rand.IntN(totalWeight)
	for _, a := range axons {
		r -= b.weight(a)
		if r < 0 {
			return a, nil
		}
	}
	return synapse.AxonInfo{}, ErrNoAxons
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
