// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// infoRecords returns the Info-level records, i.e., the channel events.
func infoRecords(records []slog.Record) []slog.Record {
	var out []slog.Record
	for _, record := range records {
		if record.Level == slog.LevelInfo {
			out = append(out, record)
		}
	}
	return out
}

// recordAttrs returns the attributes of record indexed by key.
func recordAttrs(record slog.Record) map[string]slog.Value {
	out := map[string]slog.Value{}
	record.Attrs(func(attr slog.Attr) bool {
		out[attr.Key] = attr.Value
		return true
	})
	return out
}

// recordErr returns the err attribute of record, or nil.
func recordErr(t *testing.T, record slog.Record) error {
	value, ok := recordAttrs(record)["err"]
	require.True(t, ok, "record %q has no err attribute", record.Message)
	if value.Any() == nil {
		return nil
	}
	err, ok := value.Any().(error)
	require.True(t, ok, "err attribute is %T", value.Any())
	return err
}

// recordMessages returns the messages attribute of record.
func recordMessages(t *testing.T, record slog.Record) []string {
	value, ok := recordAttrs(record)["messages"]
	require.True(t, ok, "record %q has no messages attribute", record.Message)
	messages, _ := value.Any().([]string)
	return messages
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network].
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8000} },
	}
}

// newStubConn returns a conn reading from input and writing into output.
func newStubConn(input []byte, output *bytes.Buffer) *netstub.FuncConn {
	reader := bytes.NewReader(input)
	conn := newMinimalConn()
	conn.ReadFunc = func(b []byte) (int, error) {
		return reader.Read(b)
	}
	conn.WriteFunc = func(b []byte) (int, error) {
		return output.Write(b)
	}
	conn.CloseFunc = func() error {
		return nil
	}
	return conn
}

// newStubDialer returns a dialer always returning conn.
func newStubDialer(conn net.Conn) *netstub.FuncDialer {
	return &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return conn, nil
		},
	}
}

// stubChannel is a connected channel over a [newStubConn] conn.
type stubChannel struct {
	ch      *Channel
	output  *bytes.Buffer
	records *[]slog.Record
}

// newStubChannel returns a connected client channel whose transport reads
// input and records writes. The records of the connect operation are dropped.
func newStubChannel(t *testing.T, framer Framer, codec Codec, input []byte) *stubChannel {
	output := &bytes.Buffer{}
	logger, records := newCapturingLogger()
	cfg := NewConfig()
	cfg.Dialer = newStubDialer(newStubConn(input, output))
	cfg.Logger = logger
	ch := NewClientChannel(cfg, "127.0.0.1", 8000, framer, codec)
	require.NoError(t, ch.Connect(context.Background()))
	*records = nil
	return &stubChannel{ch: ch, output: output, records: records}
}

// textCodec is a [Codec] serializing fields as "id=value" pairs joined by "|".
type textCodec struct {
	packErr   error
	unpackErr error
	unpacks   int
}

var _ Codec = &textCodec{}

func (c *textCodec) Pack(m *Message) ([]byte, error) {
	if c.packErr != nil {
		return nil, c.packErr
	}
	var parts []string
	for _, field := range m.FieldNumbers() {
		value, _ := m.Get(field)
		parts = append(parts, fmt.Sprintf("%d=%s", field, value))
	}
	return []byte(strings.Join(parts, "|")), nil
}

func (c *textCodec) Unpack(payload []byte, m *Message) error {
	c.unpacks++
	if c.unpackErr != nil {
		return c.unpackErr
	}
	for _, part := range strings.Split(string(payload), "|") {
		id, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("textCodec: malformed field %q", part)
		}
		field, err := strconv.Atoi(id)
		if err != nil {
			return fmt.Errorf("textCodec: %w", err)
		}
		m.Set(field, value)
	}
	return nil
}

// rawCodec is a [Codec] whose payload is the value of field 1.
type rawCodec struct{}

func (rawCodec) Pack(m *Message) ([]byte, error) {
	value, _ := m.Get(1)
	return []byte(value), nil
}

func (rawCodec) Unpack(payload []byte, m *Message) error {
	m.Set(1, string(payload))
	return nil
}

// newEchoMessage returns a network management request packing to 23 bytes using [textCodec].
func newEchoMessage() *Message {
	m := NewMessage()
	m.Set(0, "0800")
	m.Set(11, "000001")
	m.Set(70, "301")
	return m
}

// echoPayload is the [textCodec] payload of [newEchoMessage].
const echoPayload = "0=0800|11=000001|70=301"

// postFrame returns payload prefixed by its two bytes big endian length.
func postFrame(payload string) []byte {
	return append([]byte{byte(len(payload) >> 8), byte(len(payload))}, payload...)
}

// errMocked is the error returned by stubs that fail.
var errMocked = errors.New("mocked error")

// failingReader always fails with err.
type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

var _ io.Reader = failingReader{}
