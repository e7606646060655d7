package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"syscall"
)

// StatusCoder is implemented by failures that carry the HTTP status of a response
// the remote actually sent.
type StatusCoder interface {
	error
	StatusCode() int
}

// Context describes the call a failure belongs to.
type Context struct {
	IP        string
	Port      int
	Operation string  // Route name of the synapse
	Timeout   float64 // Seconds, as recorded on the envelope
}

// Categorize returns the failure class of err. Timeouts are checked before
// connection failures so a dial that ran out of time is a timeout.
func Categorize(err error) Category {
	if err == nil {
		return Unknown
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return Timeout
	}

	var coded StatusCoder
	if errors.As(err, &coded) {
		return Response
	}

	switch {
	case errors.Is(err, ErrPayload):
		return Payload
	case errors.Is(err, ErrClient):
		return Client
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return Disconnected
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return Connection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return Connection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Connection
	}

	return Unknown
}

// Classify maps err onto a status using the table.
func (t *Table) Classify(err error, ctx Context) Status {
	if err == nil {
		return Status{Code: t.fallback.Code, Message: t.fallback.Message}
	}

	category := Categorize(err)
	entry := t.Lookup(category)

	switch category {
	case Connection:
		return Status{
			Code:    entry.Code,
			Message: fmt.Sprintf("%s at %s:%d/%s", entry.Message, ctx.IP, ctx.Port, ctx.Operation),
		}
	case Timeout:
		return Status{
			Code:    entry.Code,
			Message: fmt.Sprintf("%s after %s seconds", entry.Message, strconv.FormatFloat(ctx.Timeout, 'f', -1, 64)),
		}
	case Response:
		var coded StatusCoder
		errors.As(err, &coded)
		code := entry.Code
		if code == 0 {
			code = coded.StatusCode()
		}
		return Status{Code: code, Message: fmt.Sprintf("%s: %s", entry.Message, coded.Error())}
	default:
		return Status{Code: entry.Code, Message: fmt.Sprintf("%s: %v", entry.Message, err)}
	}
}

// Classify maps err onto a status using DefaultTable.
func Classify(err error, ctx Context) Status {
	return DefaultTable.Classify(err, ctx)
}
