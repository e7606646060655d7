// Package registry publishes and looks up the AxonInfo of serving axons.
//
// A dendrite needs the address of every axon it calls. The registry is where the
// CLI and long-running callers get those addresses from, keyed by axon hotkey.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/0xxfu/bittensor/synapse"
)

var ErrNotFound = errors.New("registry: axon not found")

type Registry interface {
	// Register publishes axon. The entry expires after ttl unless the registry keeps
	// it alive; a zero ttl never expires.
	Register(ctx context.Context, axon synapse.AxonInfo, ttl time.Duration) error
	Deregister(ctx context.Context, hotkey string) error
	Lookup(ctx context.Context, hotkey string) (synapse.AxonInfo, error)
	List(ctx context.Context) ([]synapse.AxonInfo, error)
	// Watch emits the full list on every change until ctx is done.
	Watch(ctx context.Context) <-chan []synapse.AxonInfo
}

// Serving filters axons down to those with an address.
func Serving(axons []synapse.AxonInfo) []synapse.AxonInfo {
	out := make([]synapse.AxonInfo, 0, len(axons))
	for _, a := range axons {
		if a.IsServing() {
			out = append(out, a)
		}
	}
	return out
}
