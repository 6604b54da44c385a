// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"errors"
	"fmt"
	"io"
)

// Send filters, packs, frames, and writes m.
//
// Send tags m as outgoing, runs the outgoing filters, assigns the channel
// codec to m, packs it, and writes length, header, payload, and trailer
// using the channel [Framer] before flushing. It emits a "send" event
// whatever the outcome.
//
// Errors: [ErrNilMessage], [ErrNotConnected], [ErrVeto] from filters, codec
// errors unchanged, [ErrFramingViolation] from the framer (including a
// payload rejected by a [PayloadChecker]), [ErrTransportFailure] for I/O.
func (c *Channel) Send(m *Message) (err error) {
	ev := c.newEvent("send")
	defer func() {
		if err != nil {
			ev.AddMessage(err)
		}
		c.emit(ev)
	}()

	if m == nil {
		return ErrNilMessage
	}
	ev.AddMessage(m)
	if !c.IsConnected() {
		return ErrNotConnected
	}
	m.Direction = DirectionOutgoing
	if err := applyFilters(c.filters.outgoing, c, m, ev); err != nil {
		return err
	}
	m.Codec = c.codec
	payload, err := m.Pack()
	if err != nil {
		return err
	}
	if pc, ok := c.framer.(PayloadChecker); ok {
		if err := pc.CheckPayload(payload); err != nil {
			return err
		}
	}
	if err := c.writeFrame(m, payload); err != nil {
		c.wr.Reset(c.conn)
		return transportError(err)
	}

	c.counters.inc(CounterTX)
	c.notify("send", m)
	return nil
}

func (c *Channel) writeFrame(m *Message, payload []byte) error {
	if err := c.framer.SendLength(c.wr, len(payload)+c.framer.HeaderLength()); err != nil {
		return err
	}
	if err := c.framer.SendHeader(c.wr, m, len(payload)); err != nil {
		return err
	}
	if _, err := c.wr.Write(payload); err != nil {
		return err
	}
	if err := c.framer.SendTrailer(c.wr, m, len(payload)); err != nil {
		return err
	}
	return c.wr.Flush()
}

// Receive reads, unpacks, and filters the next message.
//
// When the framer declares a length, it must be in (MinFrameLength,
// MaxFrameLength] or Receive fails with [ErrSuspiciousLength] before
// consuming anything else. The header, if any, is read first and attached
// to the message; a header the framer rejects fails with [ErrRejected]. When
// the length is [LengthUndeclared], the payload comes from
// [Framer.StreamReceive]. A zero-length payload is a null message (e.g., a
// keep-alive): the returned message is empty and the codec is not invoked.
//
// Receive emits a "receive" event whatever the outcome. End of stream fails
// with [ErrPeerDisconnected]. Other I/O errors fail with [ErrTransportFailure]
// and are attached to the event only while the channel is usable, so that
// errors caused by an intentional disconnect are not logged.
func (c *Channel) Receive() (m *Message, err error) {
	ev := c.newEvent("receive")
	defer func() {
		if err != nil {
			c.annotateReceiveError(ev, err)
			m = nil
		}
		c.emit(ev)
	}()

	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	header, payload, err := c.readFrame()
	if err != nil {
		return nil, transportError(err)
	}

	m = NewMessage()
	m.Codec = c.codec
	if len(payload) > 0 {
		if err := m.Unpack(payload); err != nil {
			return nil, err
		}
	}
	m.Header = header
	m.Direction = DirectionIncoming
	if err := applyFilters(c.filters.incoming, c, m, ev); err != nil {
		return nil, err
	}

	ev.AddMessage(m)
	c.counters.inc(CounterRX)
	c.notify("receive", m)
	return m, nil
}

func (c *Channel) readFrame() (header, payload []byte, err error) {
	length, err := c.framer.ReadLength(c.rd)
	if err != nil {
		return nil, nil, err
	}
	hlen := c.framer.HeaderLength()

	switch {
	case length == LengthUndeclared:
		if header, err = c.readHeader(hlen); err != nil {
			return nil, nil, err
		}
		payload, err = c.framer.StreamReceive(c.rd)
		return header, payload, err

	case length > MinFrameLength && length <= MaxFrameLength:
		if length < hlen {
			return nil, nil, fmt.Errorf("%w: %d is shorter than the %d bytes header",
				ErrSuspiciousLength, length, hlen)
		}
		if header, err = c.readHeader(hlen); err != nil {
			return nil, nil, err
		}
		if hlen > 0 && c.framer.IsRejected(header) {
			return header, nil, ErrRejected
		}
		payload = make([]byte, length-hlen)
		if _, err := io.ReadFull(c.rd, payload); err != nil {
			return nil, nil, err
		}
		return header, payload, nil

	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrSuspiciousLength, length)
	}
}

// readHeader reads exactly hlen header bytes. It returns nil when hlen is zero.
func (c *Channel) readHeader(hlen int) ([]byte, error) {
	if hlen <= 0 {
		return nil, nil
	}
	header := make([]byte, hlen)
	if _, err := io.ReadFull(c.rd, header); err != nil {
		return nil, err
	}
	return header, nil
}

func (c *Channel) annotateReceiveError(ev *Event, err error) {
	switch {
	case errors.Is(err, ErrPeerDisconnected):
		ev.AddMessage("peer-disconnect")
		ev.AddMessage(err)
	case errors.Is(err, ErrTransportFailure):
		if c.usable {
			ev.AddMessage(err)
		}
	default:
		ev.AddMessage(err)
	}
}
