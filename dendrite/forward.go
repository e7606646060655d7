package dendrite

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/0xxfu/bittensor/codec"
	"github.com/0xxfu/bittensor/synapse"
)

// Query calls a single axon with a copy of s and returns the result. s is not
// modified. When s cannot be copied no request is sent and the result is a blank
// envelope of the same type carrying a client failure.
func (d *Dendrite) Query(ctx context.Context, axon synapse.AxonInfo, s synapse.Synapse, opts ...CallOption) any {
	cloned, err := codec.Clone(d.codec, s)
	if err != nil {
		cc := d.callConfig(opts)
		return cc.result(d.unsent(ctx, axon, s, cc, err))
	}
	return d.Call(ctx, axon, cloned, opts...)
}

// Forward calls every axon with its own copy of s and returns the results in the
// order of axons. A failed call yields its failure result in its slot and does not
// affect the others. s is not modified; if it cannot be copied, every slot holds a
// blank envelope carrying a client failure.
func (d *Dendrite) Forward(ctx context.Context, axons []synapse.AxonInfo, s synapse.Synapse, opts ...CallOption) []any {
	cc := d.callConfig(opts)
	results := make([]any, len(axons))
	if len(axons) == 0 {
		return results
	}

	copies := make([]synapse.Synapse, len(axons))
	for i := range axons {
		cloned, err := codec.Clone(d.codec, s)
		if err != nil {
			// Every copy would fail the same way.
			for j, axon := range axons {
				results[j] = cc.result(d.unsent(ctx, axon, s, cc, err))
			}
			return results
		}
		copies[i] = cloned
	}

	session, release := d.acquire()
	defer release()

	var g errgroup.Group
	switch {
	case cc.sequential:
		g.SetLimit(1)
	case d.cfg.maxConcurrency > 0:
		g.SetLimit(d.cfg.maxConcurrency)
	}

	for i, axon := range axons {
		g.Go(func() error {
			d.call(ctx, session, axon, copies[i], cc)
			results[i] = cc.result(copies[i])
			return nil
		})
	}
	// Calls report failures on their terminals, never through the group.
	_ = g.Wait()

	return results
}
