// Package synapse defines the envelope exchanged between a dendrite and an axon.
//
// A synapse is a user-defined struct that embeds Base. Base carries the routing and
// outcome metadata of one call attempt: the sender ("dendrite") and receiver ("axon")
// terminal blocks, the call timeout and the body hash bound into the signature.
//
//	type Increment struct {
//		synapse.Base
//		Input  int  `json:"input"`
//		Output *int `json:"output,omitempty"`
//	}
//
// The envelope is serialized field-for-field as JSON, Base fields inlined.
package synapse

import (
	"reflect"
)

// Synapse is implemented by every envelope. Embedding Base satisfies it for the
// pointer type.
type Synapse interface {
	Header() *Base
}

// Named lets an envelope override its route name. By default the Go type name is used.
type Named interface {
	SynapseName() string
}

// Deserializer is implemented by envelopes that expose a user-facing output value.
type Deserializer interface {
	Deserialize() any
}

// Cloner is implemented by envelopes that cannot be copied by a JSON round trip.
type Cloner interface {
	Clone() Synapse
}

// Base is the metadata block shared by all envelopes.
type Base struct {
	Timeout            float64       `json:"timeout,omitempty"` // Seconds the caller waits for this call
	Dendrite           *TerminalInfo `json:"dendrite,omitempty"`
	Axon               *TerminalInfo `json:"axon,omitempty"`
	ComputedBodyHash   string        `json:"computed_body_hash,omitempty"`
	RequiredHashFields []string      `json:"required_hash_fields,omitempty"`
}

// Header returns the metadata block itself.
func (b *Base) Header() *Base {
	return b
}

// baseKeys are the JSON names owned by Base. Dynamic envelopes keep them out of
// their free-form field set.
var baseKeys = map[string]struct{}{
	"timeout":              {},
	"dendrite":             {},
	"axon":                 {},
	"computed_body_hash":   {},
	"required_hash_fields": {},
}

// Name returns the route name of s.
func Name(s Synapse) string {
	if named, ok := s.(Named); ok {
		return named.SynapseName()
	}
	typ := reflect.TypeOf(s)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ.Name()
}

// Deserialize returns the user-facing output of s, or s itself when it does not
// implement Deserializer.
func Deserialize(s Synapse) any {
	if d, ok := s.(Deserializer); ok {
		return d.Deserialize()
	}
	return s
}
