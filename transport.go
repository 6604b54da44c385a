//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package isochannel

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/bassosimone/safeconn"
)

// Dialer abstracts the [*net.Dialer] behavior.
//
// By making [*Channel] depend on an abstract implementation we
// allow for unit testing and for using alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Listener is the server side of the transport boundary.
//
// The [net.Listener] type satisfies this interface.
type Listener interface {
	Accept() (net.Conn, error)
	Addr() net.Addr
}

// transportNetwork is the network used to dial channels.
const transportNetwork = "tcp"

// joinHostPort returns the "host:port" address of a client channel.
func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// dialTransport dials address emitting Debug-level connectStart/connectDone records.
func (c *Channel) dialTransport(ctx context.Context, address string) (net.Conn, error) {
	t0 := c.timeNow()
	deadline, _ := ctx.Deadline()
	c.logger.Debug(
		"connectStart",
		slog.String("channel", c.name),
		slog.Time("deadline", deadline),
		slog.String("protocol", transportNetwork),
		slog.String("remoteAddr", address),
		slog.Time("t", t0),
	)

	var (
		conn net.Conn
		err  error
	)
	if c.port < 0 || c.port > 65535 {
		err = fmt.Errorf("%w: invalid port %d", ErrTransportFailure, c.port)
	} else {
		conn, err = c.dialer.DialContext(ctx, transportNetwork, address)
	}

	c.logger.Debug(
		"connectDone",
		slog.String("channel", c.name),
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", c.errClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", transportNetwork),
		slog.String("remoteAddr", address),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return conn, err
}

// acceptTransport waits for a peer emitting Debug-level acceptStart/acceptDone records.
func (c *Channel) acceptTransport(l Listener) (net.Conn, error) {
	t0 := c.timeNow()
	laddr := l.Addr().String()
	c.logger.Debug(
		"acceptStart",
		slog.String("channel", c.name),
		slog.String("localAddr", laddr),
		slog.Time("t", t0),
	)

	conn, err := l.Accept()

	c.logger.Debug(
		"acceptDone",
		slog.String("channel", c.name),
		slog.Any("err", err),
		slog.String("errClass", c.errClassifier.Classify(err)),
		slog.String("localAddr", laddr),
		slog.String("protocol", safeconn.Network(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return conn, err
}
