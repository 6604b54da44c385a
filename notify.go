// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import "sync"

// Change describes a state change of a [*Channel].
type Change struct {
	// Channel is the channel that changed.
	Channel *Channel

	// Op is the operation that caused the change: "connect",
	// "disconnect", "send", or "receive".
	Op string

	// Message is the message sent or received, nil otherwise.
	Message *Message
}

// listenerSet holds the callbacks registered using [*Channel.Subscribe].
type listenerSet struct {
	mu      sync.Mutex
	nextID  int
	entries []listenerEntry
}

type listenerEntry struct {
	id int
	fn func(Change)
}

func (ls *listenerSet) add(fn func(Change)) (cancel func()) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	id := ls.nextID
	ls.nextID++
	ls.entries = append(ls.entries, listenerEntry{id: id, fn: fn})
	return func() { ls.remove(id) }
}

func (ls *listenerSet) remove(id int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for idx, entry := range ls.entries {
		if entry.id == id {
			ls.entries = append(ls.entries[:idx:idx], ls.entries[idx+1:]...)
			return
		}
	}
}

// notify invokes the callbacks synchronously in subscription order.
func (ls *listenerSet) notify(change Change) {
	ls.mu.Lock()
	entries := append([]listenerEntry(nil), ls.entries...)
	ls.mu.Unlock()
	for _, entry := range entries {
		entry.fn(change)
	}
}
