package codec

import (
	"fmt"
	"reflect"

	"github.com/0xxfu/bittensor/synapse"
)

// Clone returns a deep copy of s. Envelopes implementing synapse.Cloner copy
// themselves; others are round-tripped through c into a new value of the same type.
func Clone(c Codec, s synapse.Synapse) (synapse.Synapse, error) {
	if cloner, ok := s.(synapse.Cloner); ok {
		return cloner.Clone(), nil
	}

	typ := reflect.TypeOf(s)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("codec: synapse must be a pointer, got %T", s)
	}

	data, err := c.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", synapse.Name(s), err)
	}
	clone, ok := reflect.New(typ.Elem()).Interface().(synapse.Synapse)
	if !ok {
		return nil, fmt.Errorf("codec: %T does not implement synapse.Synapse", clone)
	}
	if err := c.Decode(data, clone); err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", synapse.Name(s), err)
	}
	return clone, nil
}

// Replace overwrites the envelope dst points to with the one src points to. Both
// must have the same concrete type.
func Replace(dst, src synapse.Synapse) error {
	dv, sv := reflect.ValueOf(dst), reflect.ValueOf(src)
	if dv.Kind() != reflect.Ptr || dv.IsNil() || sv.Kind() != reflect.Ptr || sv.IsNil() {
		return fmt.Errorf("codec: replace needs non-nil pointers, got %T and %T", dst, src)
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("codec: cannot replace %T with %T", dst, src)
	}
	dv.Elem().Set(sv.Elem())
	return nil
}
