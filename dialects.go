// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// NewFramer returns the [Framer] of the named dialect.
//
// The header argument is the default network header for dialects that
// emit one (nac, base1); nil selects the dialect's built-in default.
//
// Known dialects: nop, post, ascii, nac, base1, delimited.
func NewFramer(dialect string, header []byte) (Framer, error) {
	switch dialect {
	case "nop":
		return NopFramer{}, nil
	case "post":
		return PostFramer{}, nil
	case "ascii":
		return ASCIIFramer{}, nil
	case "nac":
		framer, err := NewNACFramer(header)
		if err != nil {
			return nil, err
		}
		return framer, nil
	case "base1":
		framer, err := NewBASE1Framer(header)
		if err != nil {
			return nil, err
		}
		return framer, nil
	case "delimited":
		return DelimitedFramer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

// writeBinaryLength emits length as a two bytes big endian integer.
func writeBinaryLength(w io.Writer, length int) error {
	if length < 0 || length > 0xffff {
		return fmt.Errorf("%w: cannot encode length %d in two bytes", ErrFramingViolation, length)
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(length))
	_, err := w.Write(buf[:])
	return err
}

// readBinaryLength consumes a two bytes big endian length.
func readBinaryLength(r *bufio.Reader) (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(buf[:])), nil
}

// PostFramer prefixes each payload with a two bytes big endian length.
type PostFramer struct {
	NopFramer
}

// SendLength implements [Framer].
func (PostFramer) SendLength(w io.Writer, length int) error {
	return writeBinaryLength(w, length)
}

// ReadLength implements [Framer].
func (PostFramer) ReadLength(r *bufio.Reader) (int, error) {
	return readBinaryLength(r)
}

// asciiLengthDigits is the width of the [ASCIIFramer] length prefix.
const asciiLengthDigits = 4

// ASCIIFramer prefixes each payload with its length as four decimal digits.
type ASCIIFramer struct {
	NopFramer
}

// SendLength implements [Framer].
func (ASCIIFramer) SendLength(w io.Writer, length int) error {
	if length < 0 || length > 9999 {
		return fmt.Errorf("%w: cannot encode length %d in %d digits",
			ErrFramingViolation, length, asciiLengthDigits)
	}
	_, err := fmt.Fprintf(w, "%0*d", asciiLengthDigits, length)
	return err
}

// ReadLength implements [Framer].
func (ASCIIFramer) ReadLength(r *bufio.Reader) (int, error) {
	var buf [asciiLengthDigits]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	for _, c := range buf {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: invalid length %q", ErrFramingViolation, buf[:])
		}
	}
	length, err := strconv.Atoi(string(buf[:]))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFramingViolation, err)
	}
	return length, nil
}

// TPDULength is the size of the transport protocol data unit used by [NACFramer].
const TPDULength = 5

// DefaultTPDU is the TPDU emitted by [NACFramer] when none is configured.
var DefaultTPDU = []byte{0x60, 0x00, 0x00, 0x00, 0x00}

// NACFramer prefixes each payload with a two bytes big endian length
// followed by a five bytes TPDU. The length counts the TPDU.
//
// On send, the message header is emitted when it is exactly one TPDU
// long, otherwise the configured TPDU is emitted.
type NACFramer struct {
	NopFramer
	tpdu []byte
}

// NewNACFramer returns a [*NACFramer] emitting tpdu by default. A nil
// tpdu selects [DefaultTPDU].
func NewNACFramer(tpdu []byte) (*NACFramer, error) {
	if tpdu == nil {
		tpdu = DefaultTPDU
	}
	if len(tpdu) != TPDULength {
		return nil, fmt.Errorf("%w: TPDU must be %d bytes, got %d", ErrFramingViolation, TPDULength, len(tpdu))
	}
	return &NACFramer{tpdu: bytes.Clone(tpdu)}, nil
}

// SendLength implements [Framer].
func (f *NACFramer) SendLength(w io.Writer, length int) error {
	return writeBinaryLength(w, length)
}

// SendHeader implements [Framer].
func (f *NACFramer) SendHeader(w io.Writer, m *Message, length int) error {
	header := f.tpdu
	if len(m.Header) == TPDULength {
		header = m.Header
	}
	_, err := w.Write(header)
	return err
}

// ReadLength implements [Framer].
func (f *NACFramer) ReadLength(r *bufio.Reader) (int, error) {
	return readBinaryLength(r)
}

// HeaderLength implements [Framer].
func (f *NACFramer) HeaderLength() int {
	return TPDULength
}

// BASE1HeaderLength is the size of the header used by [BASE1Framer].
const BASE1HeaderLength = 22

// BASE1Framer prefixes each payload with a two bytes big endian length
// followed by a 22 bytes network header whose first byte is the header
// length. A peer signals a rejected message using a longer header
// (the standard header followed by a reject code), so a header declaring
// more than 22 bytes is a rejection.
type BASE1Framer struct {
	NopFramer
	header []byte
}

// NewBASE1Framer returns a [*BASE1Framer] emitting header by default.
// A nil header selects an all-zero header declaring its own length.
func NewBASE1Framer(header []byte) (*BASE1Framer, error) {
	if header == nil {
		header = make([]byte, BASE1HeaderLength)
		header[0] = BASE1HeaderLength
	}
	if len(header) != BASE1HeaderLength {
		return nil, fmt.Errorf("%w: header must be %d bytes, got %d",
			ErrFramingViolation, BASE1HeaderLength, len(header))
	}
	return &BASE1Framer{header: bytes.Clone(header)}, nil
}

// SendLength implements [Framer].
func (f *BASE1Framer) SendLength(w io.Writer, length int) error {
	return writeBinaryLength(w, length)
}

// SendHeader implements [Framer].
func (f *BASE1Framer) SendHeader(w io.Writer, m *Message, length int) error {
	header := f.header
	if len(m.Header) == BASE1HeaderLength {
		header = m.Header
	}
	_, err := w.Write(header)
	return err
}

// ReadLength implements [Framer].
func (f *BASE1Framer) ReadLength(r *bufio.Reader) (int, error) {
	return readBinaryLength(r)
}

// HeaderLength implements [Framer].
func (f *BASE1Framer) HeaderLength() int {
	return BASE1HeaderLength
}

// HeaderLengthOf returns the header length declared by the first byte of
// header, or [BASE1HeaderLength] when header is empty.
func (f *BASE1Framer) HeaderLengthOf(header []byte) int {
	if len(header) < 1 {
		return BASE1HeaderLength
	}
	return int(header[0])
}

// IsRejected implements [Framer].
func (f *BASE1Framer) IsRejected(header []byte) bool {
	return f.HeaderLengthOf(header) > BASE1HeaderLength
}

// ETX terminates each payload sent using [DelimitedFramer].
const ETX = 0x03

// DelimitedFramer does not declare lengths. Each payload is followed
// by [ETX] and the receiver reads until it finds one. Payloads must
// not contain ETX (see [DelimitedFramer.CheckPayload]).
type DelimitedFramer struct {
	NopFramer
}

var _ PayloadChecker = DelimitedFramer{}

// CheckPayload implements [PayloadChecker]. A payload containing [ETX]
// would be split by the receiver, so it is a framing violation.
func (DelimitedFramer) CheckPayload(payload []byte) error {
	if idx := bytes.IndexByte(payload, ETX); idx >= 0 {
		return fmt.Errorf("%w: payload contains ETX at offset %d", ErrFramingViolation, idx)
	}
	return nil
}

// SendTrailer implements [Framer].
func (DelimitedFramer) SendTrailer(w io.Writer, m *Message, length int) error {
	_, err := w.Write([]byte{ETX})
	return err
}

// StreamReceive implements [Framer].
func (DelimitedFramer) StreamReceive(r *bufio.Reader) ([]byte, error) {
	data, err := r.ReadBytes(ETX)
	if err != nil {
		return nil, err
	}
	return data[:len(data)-1], nil
}
