package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/0xxfu/bittensor/synapse"
)

// Prefix is the etcd key prefix of axon entries:
//
//	Key:   /axons/{hotkey}
//	Value: JSON-encoded AxonInfo
const Prefix = "/axons/"

// EtcdRegistry implements Registry on etcd v3. Entries registered with a ttl hang off
// a lease that is kept alive until Deregister, re-registration or Close revokes it, or
// until the process dies.
type EtcdRegistry struct {
	client *clientv3.Client // etcd client connection (thread-safe, shared across goroutines)

	mu     sync.Mutex
	leases map[string]lease // hotkey -> lease of its entry
}

type lease struct {
	id   clientv3.LeaseID
	stop context.CancelFunc // ends KeepAlive
}

func NewEtcdRegistry(endpoints []string, dialTimeout time.Duration) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connect etcd: %w", err)
	}
	return &EtcdRegistry{client: c, leases: make(map[string]lease)}, nil
}

// Close revokes the leases this registry holds and closes the client.
func (r *EtcdRegistry) Close() error {
	r.mu.Lock()
	held := r.leases
	r.leases = make(map[string]lease)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, l := range held {
		l.stop()
		r.client.Revoke(ctx, l.id)
	}
	return r.client.Close()
}

// release revokes the lease held for hotkey, if any. Revoking deletes the keys
// attached to it.
func (r *EtcdRegistry) release(ctx context.Context, hotkey string) error {
	r.mu.Lock()
	l, ok := r.leases[hotkey]
	delete(r.leases, hotkey)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	l.stop()
	if _, err := r.client.Revoke(ctx, l.id); err != nil && !errors.Is(err, rpctypes.ErrLeaseNotFound) {
		return err
	}
	return nil
}

func key(hotkey string) string {
	return Prefix + hotkey
}

// Register puts axon under its hotkey, replacing an earlier entry and its lease.
func (r *EtcdRegistry) Register(ctx context.Context, axon synapse.AxonInfo, ttl time.Duration) error {
	if axon.Hotkey == "" {
		return fmt.Errorf("registry: axon %s has no hotkey", axon)
	}
	val, err := json.Marshal(axon)
	if err != nil {
		return err
	}

	if err := r.release(ctx, axon.Hotkey); err != nil {
		return err
	}

	if ttl <= 0 {
		_, err = r.client.Put(ctx, key(axon.Hotkey), string(val))
		return err
	}

	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	granted, err := r.client.Grant(ctx, seconds)
	if err != nil {
		return err
	}
	if _, err := r.client.Put(ctx, key(axon.Hotkey), string(val), clientv3.WithLease(granted.ID)); err != nil {
		r.client.Revoke(ctx, granted.ID)
		return err
	}

	// KeepAlive outlives ctx; it stops when the lease is released.
	keepCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	ch, err := r.client.KeepAlive(keepCtx, granted.ID)
	if err != nil {
		stop()
		r.client.Revoke(ctx, granted.ID)
		return err
	}
	// 消费 KeepAlive 响应，防止 channel 填满
	go func() {
		for range ch {
		}
	}()

	r.mu.Lock()
	r.leases[axon.Hotkey] = lease{id: granted.ID, stop: stop}
	r.mu.Unlock()
	return nil
}

// Deregister deletes the entry of hotkey and revokes its lease.
func (r *EtcdRegistry) Deregister(ctx context.Context, hotkey string) error {
	if err := r.release(ctx, hotkey); err != nil {
		return err
	}
	_, err := r.client.Delete(ctx, key(hotkey))
	return err
}

// leased reports whether the registry holds a lease for hotkey.
func (r *EtcdRegistry) leased(hotkey string) (clientv3.LeaseID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leases[hotkey]
	return l.id, ok
}

func (r *EtcdRegistry) Lookup(ctx context.Context, hotkey string) (synapse.AxonInfo, error) {
	resp, err := r.client.Get(ctx, key(hotkey))
	if err != nil {
		return synapse.AxonInfo{}, err
	}
	if len(resp.Kvs) == 0 {
		return synapse.AxonInfo{}, fmt.Errorf("%w: %s", ErrNotFound, hotkey)
	}
	var axon synapse.AxonInfo
	if err := json.Unmarshal(resp.Kvs[0].Value, &axon); err != nil {
		return synapse.AxonInfo{}, fmt.Errorf("registry: decode %s: %w", hotkey, err)
	}
	return axon, nil
}

// List returns every registered axon ordered by hotkey. Malformed entries are skipped.
func (r *EtcdRegistry) List(ctx context.Context) ([]synapse.AxonInfo, error) {
	resp, err := r.client.Get(ctx, Prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	axons := make([]synapse.AxonInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var axon synapse.AxonInfo
		if err := json.Unmarshal(kv.Value, &axon); err != nil {
			continue
		}
		axons = append(axons, axon)
	}
	sort.Slice(axons, func(i, j int) bool { return axons[i].Hotkey < axons[j].Hotkey })
	return axons, nil
}

// Watch uses etcd's server-push watch on the prefix and re-lists on every event.
func (r *EtcdRegistry) Watch(ctx context.Context) <-chan []synapse.AxonInfo {
	ch := make(chan []synapse.AxonInfo, 1)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(ctx, Prefix, clientv3.WithPrefix())
		for range watchChan {
			// 任何变化都重新拉取完整列表（比逐条解析 watch 事件简单）
			axons, err := r.List(ctx)
			if err != nil {
				continue
			}
			select {
			case ch <- axons:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
