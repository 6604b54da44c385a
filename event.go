// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"errors"
	"fmt"
	"time"
)

// Event is the structured record of a single channel operation.
//
// The channel creates one per operation, filters and the channel itself
// append fragments to it, and the channel emits it exactly once through
// its [SLogger] when the operation completes, regardless of the outcome.
type Event struct {
	// Channel is the originating channel.
	Channel *Channel

	// SpanID uniquely identifies the operation (see [NewSpanID]).
	SpanID string

	// Tag names the operation (e.g., "send" or "connection-refused").
	Tag string

	// T0 is when the operation started.
	T0 time.Time

	fragments []any
}

// AddMessage appends a fragment to the event. Errors are collected
// by [*Event.Err]; everything else is rendered by [*Event.Messages].
func (ev *Event) AddMessage(fragment any) {
	ev.fragments = append(ev.fragments, fragment)
}

// Fragments returns a copy of the fragments in insertion order.
func (ev *Event) Fragments() []any {
	return append([]any(nil), ev.fragments...)
}

// Messages renders the non-error fragments in insertion order.
func (ev *Event) Messages() []string {
	var out []string
	for _, fragment := range ev.fragments {
		if _, ok := fragment.(error); ok {
			continue
		}
		out = append(out, fmt.Sprint(fragment))
	}
	return out
}

// Err joins the error fragments, or returns nil if there are none.
func (ev *Event) Err() error {
	var errs []error
	for _, fragment := range ev.fragments {
		if err, ok := fragment.(error); ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
