// Package transport implements the HTTP session a dendrite talks to axons through.
//
// A Session owns one http.Client and its connection pool. Many calls, sequential or
// concurrent, can share one Session; closing it drops idle connections and makes
// further use fail with ErrSessionClosed.
//
//	call-1 ──Do(POST /Increment)──┐
//	call-2 ──Do(POST /Increment)──┼──→ Session (keep-alive pool) ──→ axons
//	call-3 ──Do(POST /Echo)───────┘
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/0xxfu/bittensor/status"
)

// MaxResponseSize bounds how much of a response body is read.
const MaxResponseSize = 64 << 20

// ErrSessionClosed is returned by Do on a closed session. It is a client-side
// failure: nothing was sent.
var ErrSessionClosed = fmt.Errorf("%w: transport: session closed", status.ErrClient)

// Request is one synapse POST.
type Request struct {
	URL         string
	ContentType string
	Body        []byte
	Synapse     string        // Route name, for logging and metrics
	Hotkey      string        // Target hotkey, for logging and metrics
	Timeout     time.Duration // Zero means the caller's default
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// ResponseError is a non-success HTTP status without a server status body.
type ResponseError struct {
	Code    int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d, message='%s'", e.Code, e.Message)
}

func (e *ResponseError) StatusCode() int {
	return e.Code
}

// Session is an owned HTTP client.
type Session struct {
	client *http.Client
	closed atomic.Bool
}

// NewSession returns an open session. A nil round tripper gets a dedicated
// transport, so closing the session never touches http.DefaultTransport.
func NewSession(rt http.RoundTripper) *Session {
	if rt == nil {
		rt = newTransport()
	}
	return &Session{client: &http.Client{Transport: rt}}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Do posts req and reads the whole response. Deadlines come from ctx.
func (s *Session) Do(ctx context.Context, req *Request) (*Response, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrClient, err)
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Close releases idle connections. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.client.CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}
