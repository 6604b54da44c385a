// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewFramer maps dialect names to framers.
func TestNewFramer(t *testing.T) {
	tests := []struct {
		// dialect is the dialect name.
		dialect string

		// header is the default header.
		header []byte

		// wantHeaderLength is the expected HeaderLength.
		wantHeaderLength int

		// wantErr is the expected error, if any.
		wantErr error
	}{
		{dialect: "nop", wantHeaderLength: 0},
		{dialect: "post", wantHeaderLength: 0},
		{dialect: "ascii", wantHeaderLength: 0},
		{dialect: "nac", wantHeaderLength: TPDULength},
		{dialect: "nac", header: []byte{1, 2, 3}, wantErr: ErrFramingViolation},
		{dialect: "base1", wantHeaderLength: BASE1HeaderLength},
		{dialect: "base1", header: []byte{1}, wantErr: ErrFramingViolation},
		{dialect: "delimited", wantHeaderLength: 0},
		{dialect: "x25", wantErr: ErrUnknownDialect},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			framer, err := NewFramer(tt.dialect, tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, framer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeaderLength, framer.HeaderLength())
		})
	}
}

// NopFramer hooks are inert.
func TestNopFramer(t *testing.T) {
	var out bytes.Buffer
	f := NopFramer{}
	require.NoError(t, f.SendLength(&out, 100))
	require.NoError(t, f.SendHeader(&out, NewMessage(), 100))
	require.NoError(t, f.SendTrailer(&out, NewMessage(), 100))
	assert.Equal(t, 0, out.Len())

	length, err := f.ReadLength(bufio.NewReader(strings.NewReader("ignored")))
	require.NoError(t, err)
	assert.Equal(t, LengthUndeclared, length)

	payload, err := f.StreamReceive(bufio.NewReader(strings.NewReader("ignored")))
	require.NoError(t, err)
	assert.Empty(t, payload)

	assert.Equal(t, 0, f.HeaderLength())
	assert.False(t, f.IsRejected([]byte{0xff}))
}

// PostFramer encodes lengths as two bytes big endian.
func TestPostFramerLength(t *testing.T) {
	var out bytes.Buffer
	f := PostFramer{}
	require.NoError(t, f.SendLength(&out, 0x1234))
	assert.Equal(t, []byte{0x12, 0x34}, out.Bytes())

	length, err := f.ReadLength(bufio.NewReader(&out))
	require.NoError(t, err)
	assert.Equal(t, 0x1234, length)

	require.ErrorIs(t, f.SendLength(&out, 0x10000), ErrFramingViolation)
	require.ErrorIs(t, f.SendLength(&out, -1), ErrFramingViolation)

	_, err = f.ReadLength(bufio.NewReader(bytes.NewReader([]byte{0x01})))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// ASCIIFramer encodes lengths as four decimal digits.
func TestASCIIFramerLength(t *testing.T) {
	var out bytes.Buffer
	f := ASCIIFramer{}
	require.NoError(t, f.SendLength(&out, 42))
	assert.Equal(t, "0042", out.String())

	length, err := f.ReadLength(bufio.NewReader(&out))
	require.NoError(t, err)
	assert.Equal(t, 42, length)

	require.ErrorIs(t, f.SendLength(&out, 10000), ErrFramingViolation)

	for _, input := range []string{"00x2", "-042", " 042"} {
		_, err := f.ReadLength(bufio.NewReader(strings.NewReader(input)))
		require.ErrorIs(t, err, ErrFramingViolation, input)
	}

	_, err = f.ReadLength(bufio.NewReader(failingReader{errMocked}))
	require.ErrorIs(t, err, errMocked)
}

// BASE1Framer reads the header length from the header and detects rejections.
func TestBASE1FramerHeader(t *testing.T) {
	f, err := NewBASE1Framer(nil)
	require.NoError(t, err)

	standard := make([]byte, BASE1HeaderLength)
	standard[0] = BASE1HeaderLength
	reject := bytes.Clone(standard)
	reject[0] = BASE1HeaderLength + 4

	assert.Equal(t, BASE1HeaderLength, f.HeaderLengthOf(standard))
	assert.Equal(t, BASE1HeaderLength+4, f.HeaderLengthOf(reject))
	assert.Equal(t, BASE1HeaderLength, f.HeaderLengthOf(nil))
	assert.False(t, f.IsRejected(standard))
	assert.True(t, f.IsRejected(reject))

	var out bytes.Buffer
	require.NoError(t, f.SendHeader(&out, NewMessage(), 10))
	assert.Equal(t, standard, out.Bytes())
}

// NewNACFramer copies the TPDU it is given.
func TestNewNACFramerCopiesTPDU(t *testing.T) {
	tpdu := []byte{0x60, 0x00, 0x01, 0x00, 0x02}
	f, err := NewNACFramer(tpdu)
	require.NoError(t, err)
	tpdu[0] = 0xff

	var out bytes.Buffer
	require.NoError(t, f.SendHeader(&out, NewMessage(), 10))
	assert.Equal(t, []byte{0x60, 0x00, 0x01, 0x00, 0x02}, out.Bytes())
	assert.Equal(t, TPDULength, f.HeaderLength())
}

// DelimitedFramer terminates payloads with ETX and reads up to it.
func TestDelimitedFramer(t *testing.T) {
	var out bytes.Buffer
	f := DelimitedFramer{}
	out.WriteString("first")
	require.NoError(t, f.SendTrailer(&out, NewMessage(), 5))
	out.WriteString("second")
	require.NoError(t, f.SendTrailer(&out, NewMessage(), 6))
	out.WriteString("partial")

	r := bufio.NewReader(&out)
	payload, err := f.StreamReceive(r)
	require.NoError(t, err)
	assert.Equal(t, "first", string(payload))

	payload, err = f.StreamReceive(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(payload))

	_, err = f.StreamReceive(r)
	require.ErrorIs(t, err, io.EOF)
}

// DelimitedFramer refuses payloads containing ETX, which the receiver would split.
func TestDelimitedFramerCheckPayload(t *testing.T) {
	f := DelimitedFramer{}
	require.NoError(t, f.CheckPayload([]byte("0200binarybitmap")))
	require.NoError(t, f.CheckPayload(nil))

	err := f.CheckPayload([]byte("0200\x03binarybitmap"))
	require.ErrorIs(t, err, ErrFramingViolation)
	assert.ErrorContains(t, err, "offset 4")
}
