// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/isochannel/internal/sockerr"
	"github.com/bassosimone/safeconn"
)

// Channel is a connection-oriented, bidirectional message endpoint.
//
// A client channel dials host:port; a server channel accepts a peer on a
// [Listener]. Once connected, [*Channel.Send] and [*Channel.Receive] frame
// messages using the channel's [Framer] and serialize them using its [Codec].
//
// A Channel is not safe for concurrent use: serialize the calls to its
// methods externally (e.g., a single reader and a single writer goroutine
// guarded by a mutex, or a dedicated goroutine per channel). The registry,
// counters, and change subscriptions are the exception.
type Channel struct {
	dialer        Dialer
	errClassifier ErrClassifier
	logger        SLogger
	observeIO     bool
	registry      *Registry
	timeNow       func() time.Time

	host     string
	port     int
	listener Listener

	codec  Codec
	framer Framer
	name   string
	realm  string

	conn   net.Conn
	rd     *bufio.Reader
	wr     *bufio.Writer
	usable bool

	counters  counters
	filters   filterPipeline
	listeners listenerSet
}

func newChannel(cfg *Config, framer Framer, codec Codec) *Channel {
	if framer == nil {
		framer = NopFramer{}
	}
	return &Channel{
		dialer:        cfg.Dialer,
		errClassifier: cfg.ErrClassifier,
		logger:        cfg.Logger,
		observeIO:     cfg.ObserveIO,
		registry:      cfg.Registry,
		timeNow:       cfg.TimeNow,
		codec:         codec,
		framer:        framer,
	}
}

// NewClientChannel returns a [*Channel] that [*Channel.Connect] connects to host:port.
//
// A nil framer selects [NopFramer].
func NewClientChannel(cfg *Config, host string, port int, framer Framer, codec Codec) *Channel {
	c := newChannel(cfg, framer, codec)
	c.host = host
	c.port = port
	return c
}

// NewServerChannel returns a [*Channel] for the server role.
//
// When listener is not nil, [*Channel.Connect] waits for a peer on it.
// Otherwise, use [*Channel.Accept]. A nil framer selects [NopFramer].
func NewServerChannel(cfg *Config, framer Framer, codec Codec, listener Listener) *Channel {
	c := newChannel(cfg, framer, codec)
	c.listener = listener
	return c
}

// Host returns the remote host of a client channel.
func (c *Channel) Host() string {
	return c.host
}

// Port returns the remote port of a client channel.
func (c *Channel) Port() int {
	return c.port
}

// Listener returns the listener of a server channel, if any.
func (c *Channel) Listener() Listener {
	return c.listener
}

// Codec returns the [Codec] assigned to messages.
func (c *Channel) Codec() Codec {
	return c.codec
}

// SetCodec replaces the [Codec] assigned to messages.
func (c *Channel) SetCodec(codec Codec) {
	c.codec = codec
}

// Framer returns the channel [Framer].
func (c *Channel) Framer() Framer {
	return c.framer
}

// SetLogger binds the channel to logger and realm. The realm
// is attached to every event the channel emits.
func (c *Channel) SetLogger(logger SLogger, realm string) {
	c.logger = logger
	c.realm = realm
}

// Logger returns the channel [SLogger].
func (c *Channel) Logger() SLogger {
	return c.logger
}

// Realm returns the realm set by [*Channel.SetLogger].
func (c *Channel) Realm() string {
	return c.realm
}

// SetName names the channel and registers it in the configured [*Registry].
//
// Renaming releases the previous name, unless another channel has taken
// it over since. Use [*Registry.Channel] to look it up.
func (c *Channel) SetName(name string) {
	if c.registry != nil {
		if c.name != "" && c.name != name {
			c.registry.release(channelKeyPrefix+c.name, c)
		}
		c.registry.Register(channelKeyPrefix+name, c)
	}
	c.name = name
}

// Name returns the name set by [*Channel.SetName].
func (c *Channel) Name() string {
	return c.name
}

// IsConnected returns whether the channel has a transport and is usable.
func (c *Channel) IsConnected() bool {
	return c.conn != nil && c.usable
}

// Counters returns a snapshot of the counters, indexed by [Counter].
func (c *Channel) Counters() [NumCounters]int64 {
	return c.counters.snapshot()
}

// ResetCounters zeroes all the counters.
func (c *Channel) ResetCounters() {
	c.counters.reset()
}

// Subscribe registers fn to be called synchronously after each connect,
// disconnect, successful send, and successful receive. Call the returned
// function to unsubscribe.
func (c *Channel) Subscribe(fn func(Change)) (cancel func()) {
	return c.listeners.add(fn)
}

func (c *Channel) notify(op string, m *Message) {
	c.listeners.notify(Change{Channel: c, Op: op, Message: m})
}

// AddFilter appends f to the pipeline of the given direction, or to
// both pipelines when dir is [DirectionBoth].
func (c *Channel) AddFilter(f Filter, dir Direction) {
	c.filters.add(f, dir)
}

// AddFilterBoth is equivalent to AddFilter(f, DirectionBoth).
func (c *Channel) AddFilterBoth(f Filter) {
	c.AddFilter(f, DirectionBoth)
}

// RemoveFilter removes f from the pipeline of the given direction, or
// from both pipelines when dir is [DirectionBoth]. Filters are compared by
// identity and filters of a non comparable type are never removed.
func (c *Channel) RemoveFilter(f Filter, dir Direction) {
	c.filters.remove(f, dir)
}

// RemoveFilterBoth is equivalent to RemoveFilter(f, DirectionBoth).
func (c *Channel) RemoveFilterBoth(f Filter) {
	c.RemoveFilter(f, DirectionBoth)
}

// Filters returns a copy of the pipeline of the given direction. For
// [DirectionBoth] it returns the incoming pipeline followed by the outgoing one.
func (c *Channel) Filters(dir Direction) []Filter {
	var out []Filter
	if dir == DirectionBoth || dir == DirectionIncoming {
		out = append(out, c.filters.incoming...)
	}
	if dir == DirectionBoth || dir == DirectionOutgoing {
		out = append(out, c.filters.outgoing...)
	}
	return out
}

func (c *Channel) newEvent(tag string) *Event {
	return &Event{Channel: c, SpanID: NewSpanID(), Tag: tag, T0: c.timeNow()}
}

// emit logs ev at Info level using the event tag as the message.
func (c *Channel) emit(ev *Event) {
	err := ev.Err()
	c.logger.Info(
		ev.Tag,
		slog.String("channel", c.name),
		slog.Any("err", err),
		slog.String("errClass", c.errClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(c.conn)),
		slog.Any("messages", ev.Messages()),
		slog.String("protocol", safeconn.Network(c.conn)),
		slog.String("realm", c.realm),
		slog.String("remoteAddr", safeconn.RemoteAddr(c.conn)),
		slog.String("spanID", ev.SpanID),
		slog.Time("t0", ev.T0),
		slog.Time("t", c.timeNow()),
	)
}

// endpoint describes where the channel connects, for events.
func (c *Channel) endpoint() string {
	if c.listener != nil {
		return fmt.Sprintf("local address %s", c.listener.Addr())
	}
	return joinHostPort(c.host, c.port)
}

// Connect establishes the transport.
//
// A server channel created with a listener waits for a peer on it (see
// [*Channel.Accept]). A client channel dials host:port. When the peer refuses
// the connection, Connect emits a "connection-refused" event and returns nil
// leaving the channel disconnected, so retry loops can poll
// [*Channel.IsConnected]. Any other failure wraps [ErrTransportFailure].
//
// The ctx only bounds dialing.
func (c *Channel) Connect(ctx context.Context) (err error) {
	ev := c.newEvent("connect")
	defer func() {
		c.emit(ev)
	}()
	ev.AddMessage(c.endpoint())

	if c.listener != nil {
		return c.accept(ev, c.listener)
	}

	address := joinHostPort(c.host, c.port)
	conn, err := c.dialTransport(ctx, address)
	switch {
	case sockerr.IsConnRefused(err):
		ev = c.newEvent("connection-refused")
		ev.AddMessage(address)
		ev.AddMessage(fmt.Errorf("%w: %w", ErrConnectionRefused, err))
		return nil
	case err != nil:
		err = transportError(err)
		ev.AddMessage(err)
		return err
	}
	c.attach(conn)
	return nil
}

// Accept waits for a peer on l and uses the resulting connection as the
// transport. It emits a "connect" event. Failures wrap [ErrTransportFailure].
func (c *Channel) Accept(l Listener) error {
	ev := c.newEvent("connect")
	defer c.emit(ev)
	ev.AddMessage(fmt.Sprintf("local address %s", l.Addr()))
	return c.accept(ev, l)
}

func (c *Channel) accept(ev *Event, l Listener) error {
	conn, err := c.acceptTransport(l)
	if err != nil {
		err = transportError(err)
		ev.AddMessage(err)
		return err
	}
	c.attach(conn)
	return nil
}

// attach makes conn the transport, replacing any previous one.
func (c *Channel) attach(conn net.Conn) {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.observeIO {
		conn = observeConn(c, conn)
	}
	c.conn = conn
	c.rd = bufio.NewReader(conn)
	c.wr = bufio.NewWriter(conn)
	c.usable = true
	c.counters.inc(CounterConnect)
	c.notify("connect", nil)
}

// Disconnect tears down the transport.
//
// The channel becomes unusable and keeps its name, filters, codec, and
// framer, so it can connect again. Calling Disconnect on a disconnected
// channel only emits the event. A transport that was already closed out of
// band (see [*Channel.CloseOnDone]) is not an error.
func (c *Channel) Disconnect() (err error) {
	ev := c.newEvent("disconnect")
	defer c.emit(ev)
	ev.AddMessage(c.endpoint())

	c.usable = false
	c.notify("disconnect", nil)
	c.rd, c.wr = nil, nil
	conn := c.conn
	c.conn = nil
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		err = transportError(err)
		ev.AddMessage(err)
		return err
	}
	return nil
}

// Reconnect disconnects and connects again.
func (c *Channel) Reconnect(ctx context.Context) error {
	if err := c.Disconnect(); err != nil {
		return err
	}
	return c.Connect(ctx)
}

// SetUsable marks the channel as usable or not without touching the transport.
//
// Marking a channel unusable makes [*Channel.IsConnected] false, which lets
// whoever multiplexes the channel force a reconnect later.
func (c *Channel) SetUsable(usable bool) {
	ev := c.newEvent("usable")
	ev.AddMessage(usable)
	c.emit(ev)
	c.usable = usable
}

// GetBytes reads at most len(buf) raw bytes from the input stream.
func (c *Channel) GetBytes(buf []byte) (int, error) {
	if !c.IsConnected() {
		return 0, ErrNotConnected
	}
	count, err := c.rd.Read(buf)
	return count, transportError(err)
}
