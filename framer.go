// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"bufio"
	"io"
)

// Bounds applied by [*Channel.Receive] to the length declared by a frame.
//
// They protect against corrupt or hostile length fields causing huge
// allocations or reads blocking forever. They are not a protocol limit.
const (
	// LengthUndeclared is returned by [Framer.ReadLength] when the dialect
	// does not declare the payload length and [Framer.StreamReceive]
	// must be used instead.
	LengthUndeclared = -1

	// MinFrameLength is the exclusive lower bound of a declared length.
	MinFrameLength = 10

	// MaxFrameLength is the inclusive upper bound of a declared length.
	MaxFrameLength = 4096
)

// Framer is the set of byte-level hooks that make up a wire dialect.
//
// [*Channel.Send] calls SendLength, SendHeader, writes the payload, and
// calls SendTrailer, in this order. [*Channel.Receive] calls ReadLength,
// HeaderLength, reads the header, checks IsRejected, and reads the payload
// (or calls StreamReceive when the length is [LengthUndeclared]).
//
// Embed [NopFramer] to inherit inert defaults and override only the
// hooks that the dialect needs.
type Framer interface {
	// SendLength emits the length prefix. The length includes the header.
	SendLength(w io.Writer, length int) error

	// SendHeader emits the network header. The length excludes the header.
	SendHeader(w io.Writer, m *Message, length int) error

	// SendTrailer emits anything that follows the payload.
	SendTrailer(w io.Writer, m *Message, length int) error

	// ReadLength consumes the length prefix and returns the declared length
	// including the header, or [LengthUndeclared].
	ReadLength(r *bufio.Reader) (int, error)

	// HeaderLength returns the size of the header preceding the payload.
	HeaderLength() int

	// StreamReceive reads a payload whose length is not declared.
	StreamReceive(r *bufio.Reader) ([]byte, error)

	// IsRejected returns whether the header signals a rejected message.
	IsRejected(header []byte) bool
}

// PayloadChecker is implemented by a [Framer] that cannot carry every payload
// (e.g., because it delimits frames with a byte the payload must not contain).
//
// [*Channel.Send] calls CheckPayload before writing anything and fails with
// the returned error, which should wrap [ErrFramingViolation].
type PayloadChecker interface {
	CheckPayload(payload []byte) error
}

// NopFramer implements [Framer] with inert hooks: nothing is emitted around
// the payload, the length is never declared, there is no header, and
// stream receive returns an empty payload.
type NopFramer struct{}

var _ Framer = NopFramer{}

// SendLength implements [Framer].
func (NopFramer) SendLength(w io.Writer, length int) error {
	return nil
}

// SendHeader implements [Framer].
func (NopFramer) SendHeader(w io.Writer, m *Message, length int) error {
	return nil
}

// SendTrailer implements [Framer].
func (NopFramer) SendTrailer(w io.Writer, m *Message, length int) error {
	return nil
}

// ReadLength implements [Framer].
func (NopFramer) ReadLength(r *bufio.Reader) (int, error) {
	return LengthUndeclared, nil
}

// HeaderLength implements [Framer].
func (NopFramer) HeaderLength() int {
	return 0
}

// StreamReceive implements [Framer].
func (NopFramer) StreamReceive(r *bufio.Reader) ([]byte, error) {
	return []byte{}, nil
}

// IsRejected implements [Framer].
func (NopFramer) IsRejected(header []byte) bool {
	return false
}
