package registry

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xxfu/bittensor/synapse"
)

// Needs a running etcd, e.g. ETCD_ENDPOINTS=localhost:2379.
func TestEtcdRegisterAndLookup(t *testing.T) {
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}

	reg, err := NewEtcdRegistry(strings.Split(endpoints, ","), 2*time.Second)
	require.NoError(t, err)
	defer reg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := synapse.AxonInfo{Version: 1, IP: "127.0.0.1", Port: 8001, IPType: 4, Hotkey: "test-a", Coldkey: "cold"}
	b := synapse.AxonInfo{Version: 1, IP: "127.0.0.1", Port: 8002, IPType: 4, Hotkey: "test-b", Coldkey: "cold"}

	require.NoError(t, reg.Register(ctx, a, 10*time.Second))
	require.NoError(t, reg.Register(ctx, b, 0))
	defer reg.Deregister(ctx, b.Hotkey)

	_, ok := reg.leased(b.Hotkey)
	require.False(t, ok)

	got, err := reg.Lookup(ctx, a.Hotkey)
	require.NoError(t, err)
	require.Equal(t, a, got)

	axons, err := reg.List(ctx)
	require.NoError(t, err)
	require.Contains(t, axons, a)
	require.Contains(t, axons, b)

	require.NoError(t, reg.Deregister(ctx, a.Hotkey))
	_, err = reg.Lookup(ctx, a.Hotkey)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEtcdLeaseRevoked(t *testing.T) {
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}

	reg, err := NewEtcdRegistry(strings.Split(endpoints, ","), 2*time.Second)
	require.NoError(t, err)
	defer reg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := synapse.AxonInfo{Version: 1, IP: "127.0.0.1", Port: 8001, IPType: 4, Hotkey: "test-lease", Coldkey: "cold"}

	require.NoError(t, reg.Register(ctx, a, 30*time.Second))
	first, ok := reg.leased(a.Hotkey)
	require.True(t, ok)

	// Re-registering replaces the lease instead of stacking a second one.
	a.Port = 8002
	require.NoError(t, reg.Register(ctx, a, 30*time.Second))
	second, ok := reg.leased(a.Hotkey)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	ttl, err := reg.client.TimeToLive(ctx, first)
	require.NoError(t, err)
	require.EqualValues(t, -1, ttl.TTL)

	require.NoError(t, reg.Deregister(ctx, a.Hotkey))
	_, ok = reg.leased(a.Hotkey)
	require.False(t, ok)

	ttl, err = reg.client.TimeToLive(ctx, second)
	require.NoError(t, err)
	require.EqualValues(t, -1, ttl.TTL)
}
