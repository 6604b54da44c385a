//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/conn.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/conn.go
//

package isochannel

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// observeConn wraps the transport of ch so that each read, write, and close
// emits Debug-level records through the channel's current [SLogger].
//
// The channel enables this when [Config.ObserveIO] is set.
func observeConn(ch *Channel, conn net.Conn) net.Conn {
	return &observedConn{
		ch:       ch,
		conn:     conn,
		laddr:    safeconn.LocalAddr(conn),
		protocol: safeconn.Network(conn),
		raddr:    safeconn.RemoteAddr(conn),
	}
}

type observedConn struct {
	ch        *Channel
	closeonce sync.Once
	conn      net.Conn
	laddr     string
	protocol  string
	raddr     string
}

// ioStart emits the record preceding an I/O operation and returns its start time.
func (c *observedConn) ioStart(event string, size int) time.Time {
	t0 := c.ch.timeNow()
	c.ch.logger.Debug(
		event,
		slog.String("channel", c.ch.name),
		slog.Int("ioBufferSize", size),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", c.protocol),
		slog.String("remoteAddr", c.raddr),
		slog.Time("t", t0),
	)
	return t0
}

// ioDone emits the record following an I/O operation.
func (c *observedConn) ioDone(event string, t0 time.Time, count int, err error) {
	c.ch.logger.Debug(
		event,
		slog.String("channel", c.ch.name),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.ch.errClassifier.Classify(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", c.protocol),
		slog.String("remoteAddr", c.raddr),
		slog.Time("t0", t0),
		slog.Time("t", c.ch.timeNow()),
	)
}

// Close implements [net.Conn].
//
// Subsequent calls return [net.ErrClosed].
func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		t0 := c.ioStart("closeStart", 0)
		err = c.conn.Close()
		c.ioDone("closeDone", t0, 0, err)
	})
	return
}

// LocalAddr implements [net.Conn].
func (c *observedConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr implements [net.Conn].
func (c *observedConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	t0 := c.ioStart("readStart", len(buf))
	count, err := c.conn.Read(buf)
	c.ioDone("readDone", t0, count, err)
	return count, err
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	t0 := c.ioStart("writeStart", len(data))
	count, err := c.conn.Write(data)
	c.ioDone("writeDone", t0, count, err)
	return count, err
}

// SetDeadline implements [net.Conn].
func (c *observedConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (c *observedConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (c *observedConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}
