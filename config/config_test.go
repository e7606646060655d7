package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/dendrite"
	"github.com/0xxfu/bittensor/keypair"
	"github.com/0xxfu/bittensor/synapse"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dendrite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
external_ip: 203.0.113.7
timeout: 5s
max_concurrency: 4
rate_limit:
  rps: 20
  burst: 5
key_file: /tmp/hotkey
etcd:
  endpoints: [localhost:2379]
  dial_timeout: 2s
axons:
  - {ip: 10.0.0.1, port: 8091, hotkey: a, weight: 3}
  - {ip: 10.0.0.2, port: 8092, hotkey: b, ip_type: 6}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.7", cfg.ExternalIP)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 4, cfg.MaxConcurrency)
	require.Equal(t, &RateLimit{RPS: 20, Burst: 5}, cfg.RateLimit)
	require.Equal(t, "/tmp/hotkey", cfg.KeyFile)
	require.Equal(t, []string{"localhost:2379"}, cfg.Etcd.Endpoints)
	require.Equal(t, 2*time.Second, cfg.Etcd.DialTimeout)

	require.Equal(t, []synapse.AxonInfo{
		{IP: "10.0.0.1", Port: 8091, IPType: 4, Hotkey: "a"},
		{IP: "10.0.0.2", Port: 8092, IPType: 6, Hotkey: "b"},
	}, cfg.AxonInfos())
	require.Equal(t, map[string]int{"a": 3}, cfg.Weights())

	kp, err := keypair.Generate()
	require.NoError(t, err)
	d, err := dendrite.New(kp, cfg.Options(zap.NewNop())...)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.7", d.ExternalIP())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "timeut: 5s\n"},
		{"negative timeout", "timeout: -1s\n"},
		{"bad rate limit", "rate_limit: {rps: 0, burst: 1}\n"},
		{"axon without hotkey", "axons: [{ip: 10.0.0.1, port: 8091}]\n"},
		{"axon port range", "axons: [{ip: 10.0.0.1, port: 70000, hotkey: a}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".bittensor/hotkey"), expandHome("~/.bittensor/hotkey"))
	require.Equal(t, "/etc/hotkey", expandHome("/etc/hotkey"))
}
