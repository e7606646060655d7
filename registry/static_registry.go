package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xxfu/bittensor/synapse"
)

// StaticRegistry is an in-memory Registry for fixed target lists and tests. It
// ignores ttl.
type StaticRegistry struct {
	mu       sync.RWMutex
	axons    map[string]synapse.AxonInfo
	watchers []chan []synapse.AxonInfo
}

func NewStaticRegistry(axons ...synapse.AxonInfo) *StaticRegistry {
	r := &StaticRegistry{axons: make(map[string]synapse.AxonInfo, len(axons))}
	for _, a := range axons {
		r.axons[a.Hotkey] = a
	}
	return r
}

func (r *StaticRegistry) Register(_ context.Context, axon synapse.AxonInfo, _ time.Duration) error {
	if axon.Hotkey == "" {
		return fmt.Errorf("registry: axon %s has no hotkey", axon)
	}
	r.mu.Lock()
	r.axons[axon.Hotkey] = axon
	r.notifyLocked()
	r.mu.Unlock()
	return nil
}

func (r *StaticRegistry) Deregister(_ context.Context, hotkey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.axons[hotkey]; !ok {
		return nil
	}
	delete(r.axons, hotkey)
	r.notifyLocked()
	return nil
}

func (r *StaticRegistry) Lookup(_ context.Context, hotkey string) (synapse.AxonInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	axon, ok := r.axons[hotkey]
	if !ok {
		return synapse.AxonInfo{}, fmt.Errorf("%w: %s", ErrNotFound, hotkey)
	}
	return axon, nil
}

func (r *StaticRegistry) List(_ context.Context) ([]synapse.AxonInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(), nil
}

func (r *StaticRegistry) Watch(ctx context.Context) <-chan []synapse.AxonInfo {
	ch := make(chan []synapse.AxonInfo, 1)

	r.mu.Lock()
	r.watchers = append(r.watchers, ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, w := range r.watchers {
			if w == ch {
				r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

func (r *StaticRegistry) listLocked() []synapse.AxonInfo {
	axons := make([]synapse.AxonInfo, 0, len(r.axons))
	for _, a := range r.axons {
		axons = append(axons, a)
	}
	sort.Slice(axons, func(i, j int) bool { return axons[i].Hotkey < axons[j].Hotkey })
	return axons
}

// notifyLocked replaces any list a watcher has not read yet with the current one.
func (r *StaticRegistry) notifyLocked() {
	axons := r.listLocked()
	for _, w := range r.watchers {
		select {
		case <-w:
		default:
		}
		w <- axons
	}
}
