// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"errors"
	"fmt"
	"reflect"
)

// Filter observes a [*Message] traveling through a [*Channel].
//
// A filter may modify the message and append fragments to the [*Event]
// of the operation. Returning a non-nil error vetoes the operation: the
// remaining filters are skipped and the message neither reaches the wire
// (send) nor the caller (receive). Use [Veto] to build the error.
type Filter interface {
	Filter(ch *Channel, m *Message, ev *Event) error
}

// FilterFunc adapts a function to the [Filter] interface.
//
// FilterFunc values are not comparable, therefore [*Channel.RemoveFilter]
// cannot remove them. Wrap the function in a pointer type when removal
// is needed.
type FilterFunc func(ch *Channel, m *Message, ev *Event) error

var _ Filter = FilterFunc(nil)

// Filter implements [Filter].
func (f FilterFunc) Filter(ch *Channel, m *Message, ev *Event) error {
	return f(ch, m, ev)
}

// filterPipeline holds the per-direction filter sequences.
type filterPipeline struct {
	incoming []Filter
	outgoing []Filter
}

func (p *filterPipeline) add(f Filter, dir Direction) {
	if dir == DirectionBoth || dir == DirectionIncoming {
		p.incoming = append(p.incoming, f)
	}
	if dir == DirectionBoth || dir == DirectionOutgoing {
		p.outgoing = append(p.outgoing, f)
	}
}

func (p *filterPipeline) remove(f Filter, dir Direction) {
	if dir == DirectionBoth || dir == DirectionIncoming {
		p.incoming = removeFilter(p.incoming, f)
	}
	if dir == DirectionBoth || dir == DirectionOutgoing {
		p.outgoing = removeFilter(p.outgoing, f)
	}
}

// removeFilter removes the first filter identical to f.
func removeFilter(filters []Filter, f Filter) []Filter {
	if f == nil || !reflect.TypeOf(f).Comparable() {
		return filters
	}
	for idx, cur := range filters {
		if reflect.TypeOf(cur).Comparable() && cur == f {
			return append(filters[:idx:idx], filters[idx+1:]...)
		}
	}
	return filters
}

// applyFilters runs filters in order and stops at the first veto.
func applyFilters(filters []Filter, ch *Channel, m *Message, ev *Event) error {
	for _, f := range filters {
		if err := f.Filter(ch, m, ev); err != nil {
			if !errors.Is(err, ErrVeto) {
				err = fmt.Errorf("%w: %w", ErrVeto, err)
			}
			return err
		}
	}
	return nil
}
