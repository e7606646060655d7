package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/0xxfu/bittensor/synapse"
)

const defaultReplicas = 100

// Ring maps keys to axons using a hash ring. The same key maps to the same axon
// until the ring changes, so repeated queries reach an axon that may have cached the
// answer.
//
// Each axon is placed on the ring as replicas virtual nodes to spread load evenly.
//
//	Hash Ring:
//	                  0
//	                ╱   ╲
//	              ╱       ╲
//	         B ●               ● A
//	           │    key ◆──►   │   (clockwise to nearest node → A)
//	         C ●               ● A' (virtual node of A)
//	              ╲       ╱
//	                ╲   ╱
type Ring struct {
	replicas int                         // Virtual nodes per axon
	ring     []uint32                    // Sorted hash values on the ring
	nodes    map[uint32]synapse.AxonInfo // Hash value → axon mapping
}

// NewRing builds a ring with 100 virtual nodes per axon.
func NewRing(axons ...synapse.AxonInfo) *Ring {
	r := &Ring{
		replicas: defaultReplicas,
		nodes:    make(map[uint32]synapse.AxonInfo),
	}
	for _, a := range axons {
		r.Add(a)
	}
	return r
}

// Add places axon onto the ring. Virtual nodes are hashed from "{hotkey}#{i}", so
// an axon keeps its positions when it changes address.
func (r *Ring) Add(axon synapse.AxonInfo) {
	for i := 0; i < r.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", axon.Hotkey, i)))
		r.ring = append(r.ring, hash)
		r.nodes[hash] = axon
	}
	// Keep the ring sorted for binary search in Pick()
	sort.Slice(r.ring, func(i, j int) bool {
		return r.ring[i] < r.ring[j]
	})
}

// Pick finds the axon responsible for key: the first node clockwise from its hash,
// wrapping around to the start of the ring.
func (r *Ring) Pick(key string) (synapse.AxonInfo, error) {
	if len(r.ring) == 0 {
		return synapse.AxonInfo{}, ErrNoAxons
	}
	hash := crc32.ChecksumIEEE([]byte(key))

	idx := sort.Search(len(r.ring), func(i int) bool {
		return r.ring[i] >= hash
	})
	if idx == len(r.ring) {
		idx = 0
	}
	return r.nodes[r.ring[idx]], nil
}

// KeyedBalancer is the Balancer form of Ring: it builds a ring over the given axons
// and picks the one owning Key.
type KeyedBalancer struct {
	Key string
}

func (b *KeyedBalancer) Pick(axons []synapse.AxonInfo) (synapse.AxonInfo, error) {
	return NewRing(axons...).Pick(b.Key)
}

func (b *KeyedBalancer) Name() string {
	return "ConsistentHash"
}
