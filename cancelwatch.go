// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import "context"

// CloseOnDone arranges for the current transport to be closed when ctx is done.
//
// A channel has no cooperative cancellation: closing the transport out of
// band is the only way to unblock a pending [*Channel.Send] or
// [*Channel.Receive], which then fail with [ErrTransportFailure]. The
// channel stays in its current state; callers decide whether to
// [*Channel.Reconnect].
//
// Call the returned stop function once the watch is no longer needed
// (e.g., before [*Channel.Disconnect]). It reports whether it stopped
// the watch before it fired. When there is no transport, the returned
// function does nothing and returns false.
func (c *Channel) CloseOnDone(ctx context.Context) (stop func() bool) {
	conn := c.conn
	if conn == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		conn.Close()
	})
}
