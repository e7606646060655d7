package synapse

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalInfoHappyPath(t *testing.T) {
	info, err := NewTerminalInfo(map[string]any{
		"status_code":    200,
		"status_message": "Success",
		"process_time":   0.1,
		"ip":             "198.123.23.1",
		"port":           9282,
		"version":        111,
		"nonce":          111111,
		"uuid":           "5ecbd69c-1cec-11ee-b0dc-e29ce36fec1a",
		"hotkey":         "5EnjDGNqqWnuL2HCAdxeEtN2oqtXZw6BMBe936Kfy2PFz1J1",
		"signature":      "0x0813029319030129u4120u10841824y0182u091u230912u",
	})
	require.NoError(t, err)

	require.Equal(t, 200, info.StatusCode)
	require.Equal(t, "Success", info.StatusMessage)
	require.Equal(t, 0.1, info.ProcessTime)
	require.Equal(t, "198.123.23.1", info.IP)
	require.Equal(t, 9282, info.Port)
	require.Equal(t, 111, info.Version)
	require.Equal(t, int64(111111), info.Nonce)
	require.Equal(t, "5ecbd69c-1cec-11ee-b0dc-e29ce36fec1a", info.UUID)
	require.Equal(t, "5EnjDGNqqWnuL2HCAdxeEtN2oqtXZw6BMBe936Kfy2PFz1J1", info.Hotkey)
	require.Equal(t, "0x0813029319030129u4120u10841824y0182u091u230912u", info.Signature)
}

func TestTerminalInfoCoercesNumericStrings(t *testing.T) {
	info, err := NewTerminalInfo(map[string]any{
		"status_code":  "404",
		"process_time": "1.5",
		"port":         "8091",
		"nonce":        "1700000000000000000",
		"version":      720.0,
	})
	require.NoError(t, err)
	require.Equal(t, 404, info.StatusCode)
	require.Equal(t, 1.5, info.ProcessTime)
	require.Equal(t, 8091, info.Port)
	require.Equal(t, int64(1700000000000000000), info.Nonce)
	require.Equal(t, 720, info.Version)
}

func TestTerminalInfoInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "status_code-not-int", values: map[string]any{"status_code": "not-an-int", "process_time": 0.1, "port": 9282}},
		{name: "process_time-not-float", values: map[string]any{"status_code": 200, "process_time": "not-a-float", "port": 9282}},
		{name: "port-not-int", values: map[string]any{"status_code": 200, "process_time": 0.1, "port": "not-an-int"}},
		{name: "version-fractional", values: map[string]any{"version": 1.5}},
		{name: "nonce-float-overflow", values: map[string]any{"nonce": 1e30}},
		{name: "nonce-string-overflow", values: map[string]any{"nonce": "1e30"}},
		{name: "nonce-int-string-overflow", values: map[string]any{"nonce": "9223372036854775808"}},
		{name: "nonce-number-overflow", values: map[string]any{"nonce": json.Number("9223372036854775808")}},
		{name: "nonce-negative-overflow", values: map[string]any{"nonce": -1e19}},
		{name: "port-string-overflow", values: map[string]any{"port": "1e30"}},
		{name: "port-nan", values: map[string]any{"port": math.NaN()}},
		{name: "port-inf-string", values: map[string]any{"port": "Inf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTerminalInfo(tt.values)
			require.ErrorIs(t, err, ErrInvalidValue)
			require.NotErrorIs(t, err, ErrInvalidType)
		})
	}
}

func TestTerminalInfoStructuredValueWhereScalarExpected(t *testing.T) {
	_, err := NewTerminalInfo(map[string]any{
		"process_time": 0.1,
		"port":         9282,
		"ip":           111,
		"version":      TerminalInfo{},
		"nonce":        111111,
	})
	require.ErrorIs(t, err, ErrInvalidType)
	require.NotErrorIs(t, err, ErrInvalidValue)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "version", fieldErr.Field)
}

func TestTerminalInfoUnmarshalJSON(t *testing.T) {
	var info TerminalInfo
	err := json.Unmarshal([]byte(`{"status_code":"200","status_message":"Success","process_time":0.25,"port":8091}`), &info)
	require.NoError(t, err)
	require.Equal(t, 200, info.StatusCode)
	require.Equal(t, 8091, info.Port)

	err = json.Unmarshal([]byte(`{"status_code":{"code":200}}`), &info)
	require.ErrorIs(t, err, ErrInvalidType)

	err = json.Unmarshal([]byte(`{"port":"http"}`), &info)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestTerminalInfoWithStatusCopies(t *testing.T) {
	original := &TerminalInfo{IP: "10.0.0.1", Port: 8091}
	updated := original.WithStatus(408, "Request timeout")

	require.NotSame(t, original, updated)
	require.Zero(t, original.StatusCode)
	require.Equal(t, 408, updated.StatusCode)
	require.Equal(t, "10.0.0.1", updated.IP)

	var missing *TerminalInfo
	require.Equal(t, 503, missing.WithStatus(503, "Service unavailable").StatusCode)
}
