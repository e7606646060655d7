// Package codec serializes synapses for the wire and copies them between calls.
package codec

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	ContentType() string
}

// Default is the codec axons speak.
var Default Codec = &JSONCodec{}
