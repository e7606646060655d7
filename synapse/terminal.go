package synapse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned when a scalar cannot be coerced to the field type,
	// e.g. "not-an-int" for a port.
	ErrInvalidValue = errors.New("synapse: invalid value")
	// ErrInvalidType is returned when a structured value is given where a scalar is
	// expected, e.g. a TerminalInfo for a version.
	ErrInvalidType = errors.New("synapse: invalid type")
)

// FieldError reports which field failed construction. It unwraps to ErrInvalidValue
// or ErrInvalidType.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: field %q cannot hold %T(%v)", e.Err, e.Field, e.Value, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// TerminalInfo records identity, timing and outcome of one call attempt on one side
// of the exchange.
type TerminalInfo struct {
	StatusCode    int     `json:"status_code,omitempty"`
	StatusMessage string  `json:"status_message,omitempty"`
	ProcessTime   float64 `json:"process_time,omitempty"` // Seconds
	IP            string  `json:"ip,omitempty"`
	Port          int     `json:"port,omitempty"`
	Version       int     `json:"version,omitempty"`
	Nonce         int64   `json:"nonce,omitempty"`
	UUID          string  `json:"uuid,omitempty"`
	Hotkey        string  `json:"hotkey,omitempty"`
	Signature     string  `json:"signature,omitempty"`
}

// NewTerminalInfo builds a TerminalInfo from loosely typed values keyed by JSON field
// name. Numeric fields accept numbers and numeric strings. Nil values leave the field
// unset and unknown keys are ignored.
func NewTerminalInfo(values map[string]any) (*TerminalInfo, error) {
	t := &TerminalInfo{}
	for field, value := range values {
		if value == nil {
			continue
		}
		var err error
		switch field {
		case "status_code":
			t.StatusCode, err = coerceInt(field, value)
		case "status_message":
			t.StatusMessage, err = coerceString(field, value)
		case "process_time":
			t.ProcessTime, err = coerceFloat(field, value)
		case "ip":
			t.IP, err = coerceString(field, value)
		case "port":
			t.Port, err = coerceInt(field, value)
		case "version":
			t.Version, err = coerceInt(field, value)
		case "nonce":
			var n int64
			n, err = coerceInt64(field, value)
			t.Nonce = n
		case "uuid":
			t.UUID, err = coerceString(field, value)
		case "hotkey":
			t.Hotkey, err = coerceString(field, value)
		case "signature":
			t.Signature, err = coerceString(field, value)
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// UnmarshalJSON applies the same coercion rules as NewTerminalInfo, so a remote
// sending "200" for a status code is accepted and one sending an object is not.
func (t *TerminalInfo) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return fmt.Errorf("%w: terminal info: %v", ErrInvalidType, err)
	}
	parsed, err := NewTerminalInfo(values)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// WithStatus returns a copy of t carrying the given outcome. Attached terminals are
// never modified in place.
func (t *TerminalInfo) WithStatus(code int, message string) *TerminalInfo {
	next := TerminalInfo{}
	if t != nil {
		next = *t
	}
	next.StatusCode = code
	next.StatusMessage = message
	return &next
}

// WithProcessTime returns a copy of t with the elapsed time in seconds.
func (t *TerminalInfo) WithProcessTime(seconds float64) *TerminalInfo {
	next := TerminalInfo{}
	if t != nil {
		next = *t
	}
	next.ProcessTime = seconds
	return &next
}
