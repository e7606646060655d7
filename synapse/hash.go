package synapse

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// BodyHash returns the SHA3-256 hex digest over the JSON values of the fields named in
// RequiredHashFields, in the listed order. Listed fields missing from the envelope
// are an error, since the receiver would compute a different hash.
func BodyHash(s Synapse) (string, error) {
	h := sha3.New256()

	fields := s.Header().RequiredHashFields
	if len(fields) > 0 {
		raw, err := json.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("synapse: encode for body hash: %w", err)
		}
		var values map[string]json.RawMessage
		if err := json.Unmarshal(raw, &values); err != nil {
			return "", fmt.Errorf("synapse: decode for body hash: %w", err)
		}
		for _, field := range fields {
			value, ok := values[field]
			if !ok {
				return "", fmt.Errorf("synapse: required hash field %q is not set", field)
			}
			h.Write(value)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
