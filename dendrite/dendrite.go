// Package dendrite sends signed synapses to axons and returns their answers.
//
// A Dendrite never surfaces a remote failure as a Go error. Every call ends with
// both terminal blocks of the synapse set: on success the dendrite terminal reads
// 200/Success and the axon terminal is what the axon returned; on failure both carry
// the same classified status (see package status).
//
// Sessions are either per call, opened and closed around one Call, Query or Forward,
// or scoped, held between Open and Close and shared by every call in between:
//
//	d.Open()
//	defer d.Close()
//	a := d.Query(ctx, axonA, &Increment{Input: 1})
//	bc := d.Forward(ctx, []synapse.AxonInfo{axonB, axonC}, &Increment{Input: 2})
package dendrite

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/codec"
	"github.com/0xxfu/bittensor/keypair"
	"github.com/0xxfu/bittensor/middleware"
	"github.com/0xxfu/bittensor/status"
	"github.com/0xxfu/bittensor/transport"
)

// Dendrite is the client side of synapse exchanges. It is safe for concurrent use.
type Dendrite struct {
	keypair keypair.Keypair
	cfg     config
	codec   codec.Codec
	chain   middleware.Middleware
	nonce   atomic.Int64 // Last issued nonce

	mu      sync.Mutex
	session *transport.Session // Scoped session, nil outside Open/Close
	scopes  int
}

// New returns a dendrite signing with kp.
func New(kp keypair.Keypair, opts ...Option) (*Dendrite, error) {
	if kp == nil {
		return nil, fmt.Errorf("%w: keypair is required", ErrInvalidCfg)
	}

	cfg := config{
		logger:         zap.NewNop(),
		defaultTimeout: DefaultTimeout,
		table:          status.DefaultTable,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.externalIP == "" {
		cfg.externalIP = externalIP()
	}

	mws := append([]middleware.Middleware{
		middleware.TimeOutMiddleware(cfg.defaultTimeout),
		middleware.LoggingMiddleware(cfg.logger),
	}, cfg.middlewares...)

	return &Dendrite{
		keypair: kp,
		cfg:     cfg,
		codec:   codec.Default,
		chain:   middleware.Chain(mws...),
	}, nil
}

func (d *Dendrite) String() string {
	return fmt.Sprintf("dendrite(%s)", d.keypair.SS58Address())
}

func (d *Dendrite) GoString() string {
	return d.String()
}

// Keypair returns the signer of this dendrite.
func (d *Dendrite) Keypair() keypair.Keypair {
	return d.keypair
}

// ExternalIP returns the address stamped on outgoing dendrite terminals.
func (d *Dendrite) ExternalIP() string {
	return d.cfg.externalIP
}

// Open enters a session scope. Calls made until the matching Close share one
// session. Scopes nest: the session is released by the outermost Close.
func (d *Dendrite) Open() *transport.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		d.session = transport.NewSession(d.cfg.roundTripper)
	}
	d.scopes++
	return d.session
}

// Close leaves a session scope. Closing without an open scope is a no-op.
func (d *Dendrite) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.scopes == 0 {
		return nil
	}
	d.scopes--
	if d.scopes > 0 {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}

// Session returns the scoped session, or nil when no scope is open.
func (d *Dendrite) Session() *transport.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// acquire returns the scoped session if there is one, or a new session the caller
// owns. release must be called on every path; it only closes owned sessions.
func (d *Dendrite) acquire() (session *transport.Session, release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		return d.session, func() {}
	}
	owned := transport.NewSession(d.cfg.roundTripper)
	return owned, func() { owned.Close() }
}

// nextNonce returns a time-derived nonce strictly greater than any issued before.
func (d *Dendrite) nextNonce() int64 {
	for {
		last := d.nonce.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if d.nonce.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (d *Dendrite) callConfig(opts []CallOption) callConfig {
	cc := callConfig{deserialize: true}
	for _, opt := range opts {
		opt(&cc)
	}
	if cc.timeout <= 0 {
		cc.timeout = d.cfg.defaultTimeout
	}
	return cc
}
