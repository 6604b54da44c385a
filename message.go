// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"fmt"
	"slices"
	"strings"
)

// Direction tells whether a [*Message] is traveling into or out of a [*Channel].
//
// Filters are registered per direction (see [*Channel.AddFilter]).
type Direction int

const (
	// DirectionBoth selects both filter pipelines. A message never carries it.
	DirectionBoth Direction = iota

	// DirectionIncoming tags messages returned by [*Channel.Receive].
	DirectionIncoming

	// DirectionOutgoing tags messages passed to [*Channel.Send].
	DirectionOutgoing
)

// String implements [fmt.Stringer].
func (d Direction) String() string {
	switch d {
	case DirectionBoth:
		return "both"
	case DirectionIncoming:
		return "incoming"
	case DirectionOutgoing:
		return "outgoing"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Codec converts a [*Message] to and from its wire payload.
//
// Field-level encoding (bitmaps, variable length fields, etc.) belongs
// to the codec. The channel only calls it and propagates its errors
// unchanged.
type Codec interface {
	Pack(m *Message) ([]byte, error)
	Unpack(payload []byte, m *Message) error
}

// Message is an application message passed through a [*Channel].
//
// The message is owned by the caller. Sending or receiving it mutates
// Direction, Header, and Codec in place.
type Message struct {
	// Direction is set by the channel on send and receive.
	Direction Direction

	// Header holds the out-of-band network header (e.g., a TPDU) read while
	// receiving, or the header to emit while sending for dialects that use it.
	Header []byte

	// Codec is assigned by the channel right before packing or unpacking.
	Codec Codec

	fields map[int]string
}

// NewMessage returns an empty [*Message].
func NewMessage() *Message {
	return &Message{fields: map[int]string{}}
}

// Set assigns the value of the given field number.
func (m *Message) Set(field int, value string) {
	if m.fields == nil {
		m.fields = map[int]string{}
	}
	m.fields[field] = value
}

// Get returns the value of the given field number and whether it is set.
func (m *Message) Get(field int) (string, bool) {
	value, ok := m.fields[field]
	return value, ok
}

// Unset removes the given field number.
func (m *Message) Unset(field int) {
	delete(m.fields, field)
}

// FieldNumbers returns the set field numbers in ascending order.
func (m *Message) FieldNumbers() []int {
	out := make([]int, 0, len(m.fields))
	for field := range m.fields {
		out = append(out, field)
	}
	slices.Sort(out)
	return out
}

// MTI returns the message type indicator, stored in field zero.
func (m *Message) MTI() string {
	value, _ := m.Get(0)
	return value
}

// IsEmpty returns whether no field is set. A received null message
// (zero-length payload) is empty.
func (m *Message) IsEmpty() bool {
	return len(m.fields) == 0
}

// Pack serializes the message using the assigned [Codec].
func (m *Message) Pack() ([]byte, error) {
	if m.Codec == nil {
		return nil, ErrNoCodec
	}
	return m.Codec.Pack(m)
}

// Unpack parses payload into the message using the assigned [Codec].
func (m *Message) Unpack(payload []byte) error {
	if m.Codec == nil {
		return ErrNoCodec
	}
	return m.Codec.Unpack(payload, m)
}

// String implements [fmt.Stringer]. Events use it to log messages.
func (m *Message) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<message direction=%q", m.Direction)
	if len(m.Header) > 0 {
		fmt.Fprintf(&sb, " header=%x", m.Header)
	}
	sb.WriteString(">")
	for _, field := range m.FieldNumbers() {
		fmt.Fprintf(&sb, "<field id=%d value=%q/>", field, m.fields[field])
	}
	sb.WriteString("</message>")
	return sb.String()
}
