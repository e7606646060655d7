package axontest

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xxfu/bittensor/synapse"
)

type Increment struct {
	synapse.Base
	Input  int  `json:"input"`
	Output *int `json:"output,omitempty"`
}

func TestAttachRejectsBadSignatures(t *testing.T) {
	axon := NewServer(t)

	require.Error(t, axon.Attach("not a func"))
	require.Error(t, axon.Attach(func(s Increment) error { return nil }))
	require.Error(t, axon.Attach(func(s *Increment) {}))
	require.Error(t, axon.Attach(func(s *int) error { return nil }))
	require.NoError(t, axon.Attach(func(s *Increment) error { return nil }))
}

func TestServeForward(t *testing.T) {
	axon := NewServer(t)
	require.NoError(t, axon.Attach(func(s *Increment) error {
		if s.Input < 0 {
			return errors.New("negative input")
		}
		out := s.Input + 1
		s.Output = &out
		return nil
	}))
	info := axon.Info()
	require.Equal(t, "127.0.0.1", info.IP)

	post := func(name, body string) (*http.Response, map[string]any) {
		resp, err := http.Post(srvURL(axon)+"/"+name, "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var decoded map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		return resp, decoded
	}

	resp, body := post("Increment", `{"input":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2), body["output"])
	require.Equal(t, float64(200), body["axon"].(map[string]any)["status_code"])

	resp, body = post("Increment", `{"input":-1}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "negative input", body["message"])

	resp, _ = post("Missing", `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, int64(3), axon.Requests())
}

func srvURL(s *Server) string {
	return s.srv.URL
}
