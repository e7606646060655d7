package dendrite

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/codec"
	"github.com/0xxfu/bittensor/protocol"
	"github.com/0xxfu/bittensor/status"
	"github.com/0xxfu/bittensor/synapse"
	"github.com/0xxfu/bittensor/transport"
)

// Call sends s to axon and returns its output, or s itself with
// WithDeserialize(false). s is updated in place; inspect s.Header() for the
// outcome. Call uses the scoped session if one is open, otherwise it opens a session
// for this call and closes it before returning.
func (d *Dendrite) Call(ctx context.Context, axon synapse.AxonInfo, s synapse.Synapse, opts ...CallOption) any {
	cc := d.callConfig(opts)

	session, release := d.acquire()
	defer release()

	d.call(ctx, session, axon, s, cc)
	return cc.result(s)
}

func (cc callConfig) result(s synapse.Synapse) any {
	if cc.deserialize {
		return synapse.Deserialize(s)
	}
	return s
}

// call runs one exchange and leaves s with both terminals set.
func (d *Dendrite) call(ctx context.Context, session *transport.Session, axon synapse.AxonInfo, s synapse.Synapse, cc callConfig) {
	start := time.Now()
	name := synapse.Name(s)
	limit := budget(ctx, cc.timeout)

	if _, err := d.Preprocess(axon, s, cc.timeout); err != nil {
		d.fail(s, axon, name, start, limit, fmt.Errorf("%w: %w", status.ErrClient, err))
		return
	}

	body, err := d.codec.Encode(s)
	if err != nil {
		d.fail(s, axon, name, start, limit, fmt.Errorf("%w: encode %s: %w", status.ErrClient, name, err))
		return
	}

	req := &transport.Request{
		URL:         protocol.Endpoint(axon, name, d.cfg.externalIP),
		ContentType: d.codec.ContentType(),
		Body:        body,
		Synapse:     name,
		Hotkey:      axon.Hotkey,
		Timeout:     cc.timeout,
	}

	resp, err := d.chain(session.Do)(ctx, req)
	if err != nil {
		d.fail(s, axon, name, start, limit, err)
		return
	}

	if err := d.resolve(s, resp, start); err != nil {
		d.fail(s, axon, name, start, limit, err)
	}
}

// budget returns the seconds a call may take: the per-call timeout, or what is left
// of ctx, to the hundredth of a second, when it expires first.
func budget(ctx context.Context, timeout time.Duration) float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			return math.Round(max(left, 0).Seconds()*100) / 100
		}
	}
	return timeout.Seconds()
}

// unsent returns a blank envelope of the same type as s with err recorded as a client
// failure, for calls that could not even be prepared. s itself is not touched.
func (d *Dendrite) unsent(ctx context.Context, axon synapse.AxonInfo, s synapse.Synapse, cc callConfig, err error) synapse.Synapse {
	start := time.Now()
	name := synapse.Name(s)

	blank := s
	if typ := reflect.TypeOf(s); typ != nil && typ.Kind() == reflect.Ptr {
		if fresh, ok := reflect.New(typ.Elem()).Interface().(synapse.Synapse); ok {
			blank = fresh
		}
	}
	blank.Header().Timeout = cc.timeout.Seconds()

	d.fail(blank, axon, name, start, budget(ctx, cc.timeout), fmt.Errorf("%w: %w", status.ErrClient, err))
	return blank
}

// serverStatus is the body an axon sends with a non-200 status.
type serverStatus struct {
	Message *string `json:"message"`
}

// resolve applies an HTTP response to s. It returns an error, leaving s untouched,
// when the response does not carry an answer the axon stands behind.
func (d *Dendrite) resolve(s synapse.Synapse, resp *transport.Response, start time.Time) error {
	h := s.Header()
	local, stub := h.Dendrite, h.Axon
	elapsed := time.Since(start).Seconds()

	if resp.StatusCode != http.StatusOK {
		var reply serverStatus
		if err := json.Unmarshal(resp.Body, &reply); err != nil || reply.Message == nil {
			return &transport.ResponseError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		h.Axon = stub.WithStatus(resp.StatusCode, *reply.Message)
		h.Dendrite = local.WithStatus(resp.StatusCode, *reply.Message).WithProcessTime(elapsed)
		return nil
	}

	cloned, err := codec.Clone(d.codec, s)
	if err != nil {
		return fmt.Errorf("%w: %w", status.ErrClient, err)
	}
	answer := cloned.Header()
	answer.Dendrite, answer.Axon = nil, nil
	if err := d.codec.Decode(resp.Body, cloned); err != nil {
		return fmt.Errorf("%w: %w", status.ErrPayload, err)
	}

	if answer.Axon == nil {
		answer.Axon = stub
	}
	answer.Dendrite = local.WithStatus(status.Success.Code, status.Success.Message).WithProcessTime(elapsed)
	return codec.Replace(s, cloned)
}

// fail records err on both terminals of s. No authoritative answer was received, so
// the dendrite and axon sides read the same. limit is the time the call was allowed,
// in seconds.
func (d *Dendrite) fail(s synapse.Synapse, axon synapse.AxonInfo, name string, start time.Time, limit float64, err error) {
	h := s.Header()

	ip, port := axon.IP, axon.Port
	if h.Axon != nil {
		ip, port = h.Axon.IP, h.Axon.Port
	}
	st := d.cfg.table.Classify(err, status.Context{
		IP:        ip,
		Port:      port,
		Operation: name,
		Timeout:   limit,
	})

	d.cfg.logger.Debug("dendrite call failed",
		zap.String("synapse", name),
		zap.String("hotkey", axon.Hotkey),
		zap.String("category", status.Categorize(err).String()),
		zap.Int("status", st.Code),
		zap.Error(err),
	)

	if h.Axon == nil {
		h.Axon = &synapse.TerminalInfo{IP: axon.IP, Port: axon.Port, Hotkey: axon.Hotkey}
	}
	h.Dendrite = h.Dendrite.WithStatus(st.Code, st.Message).WithProcessTime(time.Since(start).Seconds())
	h.Axon = h.Axon.WithStatus(st.Code, st.Message)
}
