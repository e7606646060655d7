package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/axontest"
	"github.com/0xxfu/bittensor/config"
	"github.com/0xxfu/bittensor/keypair"
	"github.com/0xxfu/bittensor/synapse"
)

type Echo struct {
	synapse.Base
	Text  string `json:"text"`
	Reply string `json:"reply,omitempty"`
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func axonFlag(info synapse.AxonInfo) string {
	return info.IP + ":" + strconv.Itoa(info.Port) + ":" + info.Hotkey
}

func newEchoAxon(t *testing.T) *axontest.Server {
	axon := axontest.NewServer(t)
	require.NoError(t, axon.Attach(func(s *Echo) error {
		s.Reply = s.Text + "!"
		return nil
	}))
	return axon
}

func TestParseAxon(t *testing.T) {
	axon, err := parseAxon("10.0.0.1:8091:5Grw")
	require.NoError(t, err)
	require.Equal(t, synapse.AxonInfo{IP: "10.0.0.1", Port: 8091, IPType: 4, Hotkey: "5Grw"}, axon)

	axon, err = parseAxon("[::1]:8091:5Grw")
	require.NoError(t, err)
	require.Equal(t, "::1", axon.IP)
	require.Equal(t, 6, axon.IPType)

	for _, bad := range []string{"", "10.0.0.1", "10.0.0.1:8091", "10.0.0.1:8091:", "host:8091:k", "10.0.0.1:0:k", "10.0.0.1:x:k"} {
		_, err := parseAxon(bad)
		require.Error(t, err, bad)
	}
}

func TestKeygen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotkey")
	out, err := run(t, "keygen", "--out", path)
	require.NoError(t, err)

	kp, err := keypair.Load(path)
	require.NoError(t, err)
	require.Equal(t, kp.SS58Address(), strings.TrimSpace(out))
}

func TestQuery(t *testing.T) {
	a, b := newEchoAxon(t), newEchoAxon(t)

	out, err := run(t, "query",
		"--synapse", "Echo",
		"--payload", `{"text":"hi"}`,
		"--axon", axonFlag(a.Info()),
		"--axon", axonFlag(b.Info()),
	)
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	for i, want := range []string{a.Info().Hotkey, b.Info().Hotkey} {
		require.Equal(t, "hi!", results[i]["reply"])
		require.EqualValues(t, 200, results[i]["dendrite"].(map[string]any)["status_code"])
		require.Equal(t, want, results[i]["axon"].(map[string]any)["hotkey"])
	}
}

func TestQueryConfigAndPick(t *testing.T) {
	a, b := newEchoAxon(t), newEchoAxon(t)
	dir := t.TempDir()

	keyPath := filepath.Join(dir, "hotkey")
	_, err := run(t, "keygen", "--out", keyPath)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "dendrite.yaml")
	cfg := "external_ip: 203.0.113.7\nkey_file: " + keyPath + "\naxons:\n"
	for _, info := range []synapse.AxonInfo{a.Info(), b.Info()} {
		cfg += "  - {ip: " + info.IP + ", port: " + strconv.Itoa(info.Port) + ", hotkey: " + info.Hotkey + "}\n"
	}
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := run(t, "query", "-c", cfgPath, "--synapse", "Echo", "--payload", `{"text":"yo"}`,
		"--hotkey", b.Info().Hotkey, "--pick", "roundrobin")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	require.Equal(t, "yo!", results[0]["reply"])
	require.EqualValues(t, 0, a.Requests())
	require.EqualValues(t, 1, b.Requests())
}

func TestQueryErrors(t *testing.T) {
	_, err := run(t, "query", "--payload", "{}")
	require.Error(t, err)

	_, err = run(t, "query", "--synapse", "Echo")
	require.ErrorContains(t, err, "no serving axons")

	_, err = run(t, "query", "--synapse", "Echo", "--payload", "[1]", "--axon", "10.0.0.1:8091:k")
	require.ErrorContains(t, err, "JSON object")

	_, err = run(t, "query", "--synapse", "Echo", "--axon", "10.0.0.1:8091:k", "--pick", "fastest")
	require.ErrorContains(t, err, "unknown strategy")
}

func TestResolveTargets(t *testing.T) {
	ctx := context.Background()
	f := &queryFlags{axons: []string{"10.0.0.1:8091:a"}}

	cfg := &config.Config{Axons: []config.Axon{
		{IP: "10.0.0.9", Port: 9000, Hotkey: "a"},
		{IP: "10.0.0.2", Port: 8091, Hotkey: "b"},
	}}
	targets, err := resolveTargets(ctx, cfg, f, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, "10.0.0.1", targets[0].IP)
	require.Equal(t, "b", targets[1].Hotkey)

	// A config built without Load skips validation; the bad entry still surfaces.
	cfg.Axons = append(cfg.Axons, config.Axon{IP: "10.0.0.3", Port: 8091})
	_, err = resolveTargets(ctx, cfg, f, zap.NewNop())
	require.ErrorContains(t, err, "has no hotkey")
}
