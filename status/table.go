// Package status maps call failures onto the status codes and messages recorded in
// a synapse's terminal blocks.
//
// The mapping lives in a Table. DefaultTable is built once at init and is never
// mutated; every status text a dendrite records comes from it.
package status

import "errors"

var (
	// ErrClient marks failures that happened before the request left the client.
	ErrClient = errors.New("request not sent")
	// ErrPayload marks a response body that could not be decoded.
	ErrPayload = errors.New("malformed response body")
)

// Category is the failure class an error belongs to.
type Category uint8

const (
	Unknown Category = iota
	Connection
	Timeout
	Response
	Payload
	Disconnected
	Client
)

func (c Category) String() string {
	switch c {
	case Connection:
		return "connection"
	case Timeout:
		return "timeout"
	case Response:
		return "response"
	case Payload:
		return "payload"
	case Disconnected:
		return "disconnected"
	case Client:
		return "client"
	default:
		return "unknown"
	}
}

// Entry is one row of the table. A zero Code means the code comes from the failure
// itself (the real HTTP status of a response error).
type Entry struct {
	Code    int
	Message string
}

// Status is the outcome recorded on a terminal.
type Status struct {
	Code    int
	Message string
}

// Table is a read-only mapping from Category to Entry with a fallback for everything
// it does not list.
type Table struct {
	entries  map[Category]Entry
	fallback Entry
}

// NewTable copies entries, so later changes by the caller are not observed.
func NewTable(entries map[Category]Entry, fallback Entry) *Table {
	t := &Table{
		entries:  make(map[Category]Entry, len(entries)),
		fallback: fallback,
	}
	for c, e := range entries {
		t.entries[c] = e
	}
	return t
}

// Lookup returns the entry for c, or the fallback.
func (t *Table) Lookup(c Category) Entry {
	if e, ok := t.entries[c]; ok {
		return e
	}
	return t.fallback
}

// Fallback returns the entry used for unrecognized failures.
func (t *Table) Fallback() Entry {
	return t.fallback
}

// Success is recorded on the dendrite terminal when the axon answered.
var Success = Status{Code: 200, Message: "Success"}

// DefaultTable is the process-wide table.
var DefaultTable = NewTable(map[Category]Entry{
	Connection:   {Code: 503, Message: "Service unavailable"},
	Timeout:      {Code: 408, Message: "Request timeout"},
	Response:     {Code: 0, Message: "Client response error"},
	Payload:      {Code: 400, Message: "Payload error"},
	Disconnected: {Code: 503, Message: "Service disconnected"},
	Client:       {Code: 500, Message: "Client error"},
}, Entry{Code: 422, Message: "Failed to parse response"})
