package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/0xxfu/bittensor/protocol"
)

// JSONCodec encodes synapses field-for-field with encoding/json.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode rejects trailing data after the first JSON value.
func (c *JSONCodec) Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("codec: trailing data after offset %d", dec.InputOffset())
	}
	return nil
}

func (c *JSONCodec) ContentType() string {
	return protocol.ContentTypeJSON
}
