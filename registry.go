// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"fmt"
	"slices"
	"sync"
)

// channelKeyPrefix prefixes the names under which channels register.
const channelKeyPrefix = "channel."

// Registry maps names to channels.
//
// A Registry is safe for concurrent use. Share one across the channels
// of a process using [Config.Registry].
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Channel
}

// NewRegistry returns an empty [*Registry].
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Channel{}}
}

// Register stores ch under key, replacing any previous entry.
func (r *Registry) Register(key string, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = ch
}

// Unregister removes the entry stored under key, if any.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// release removes the entry stored under key only if it is ch.
func (r *Registry) release(key string, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[key] == ch {
		delete(r.entries, key)
	}
}

// Lookup returns the channel stored under key or an error wrapping [ErrNotFound].
func (r *Registry) Lookup(key string) (*Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return ch, nil
}

// Channel returns the channel registered by [*Channel.SetName] with the given name.
func (r *Registry) Channel(name string) (*Channel, error) {
	return r.Lookup(channelKeyPrefix + name)
}

// Keys returns the registered keys in lexicographic order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
