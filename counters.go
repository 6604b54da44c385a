// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import "sync/atomic"

// Counter indexes the array returned by [*Channel.Counters].
type Counter int

const (
	// CounterConnect counts successful connects and accepts.
	CounterConnect Counter = iota

	// CounterTX counts successful sends.
	CounterTX

	// CounterRX counts successful receives.
	CounterRX

	// NumCounters is the size of the array returned by [*Channel.Counters].
	NumCounters
)

// counters holds the per-channel event counts.
//
// The values are atomic so that observers running on other goroutines
// can take snapshots while the channel is in use.
type counters struct {
	values [NumCounters]atomic.Int64
}

func (c *counters) inc(which Counter) {
	c.values[which].Add(1)
}

func (c *counters) snapshot() (out [NumCounters]int64) {
	for idx := range c.values {
		out[idx] = c.values[idx].Load()
	}
	return
}

func (c *counters) reset() {
	for idx := range c.values {
		c.values[idx].Store(0)
	}
}
