// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"errors"
	"fmt"
	"io"

	"github.com/bassosimone/isochannel/internal/sockerr"
)

// Errors returned by channel operations. Use [errors.Is] to check them
// since the returned errors usually wrap these values.
var (
	// ErrNotConnected indicates that send or receive was attempted on a
	// channel that is not connected (see [*Channel.IsConnected]).
	ErrNotConnected = errors.New("unconnected channel")

	// ErrConnectionRefused indicates that the peer actively refused the
	// connection. [*Channel.Connect] logs it but does not return it.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrTransportFailure wraps any I/O error that is not a peer disconnection.
	ErrTransportFailure = errors.New("transport failure")

	// ErrPeerDisconnected indicates that the stream ended while receiving.
	ErrPeerDisconnected = errors.New("peer disconnected")

	// ErrFramingViolation indicates a frame that the channel refuses to process.
	ErrFramingViolation = errors.New("framing violation")

	// ErrSuspiciousLength indicates a declared length outside the accepted bounds.
	ErrSuspiciousLength = fmt.Errorf("%w: suspicious receive length", ErrFramingViolation)

	// ErrRejected indicates that the dialect detected a rejection header.
	ErrRejected = fmt.Errorf("%w: unhandled rejected message", ErrFramingViolation)

	// ErrVeto indicates that a filter blocked the operation.
	ErrVeto = errors.New("vetoed")

	// ErrNotFound indicates a failed [*Registry] lookup.
	ErrNotFound = errors.New("not found")

	// ErrNilMessage indicates a nil [*Message] passed to [*Channel.Send].
	ErrNilMessage = errors.New("nil message")

	// ErrNoCodec indicates a [*Message] packed or unpacked without a [Codec].
	ErrNoCodec = errors.New("no codec assigned")

	// ErrUnknownDialect indicates that [NewFramer] does not know the dialect.
	ErrUnknownDialect = errors.New("unknown dialect")
)

// Veto returns an error that a [Filter] uses to block the operation in flight.
//
// The returned error wraps [ErrVeto].
func Veto(reason string) error {
	return fmt.Errorf("%w: %s", ErrVeto, reason)
}

// transportError maps an I/O error to the channel error taxonomy.
//
// Errors already belonging to the taxonomy pass through unchanged. End of
// stream and connection resets become [ErrPeerDisconnected]. Everything
// else becomes [ErrTransportFailure].
func transportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrFramingViolation),
		errors.Is(err, ErrPeerDisconnected),
		errors.Is(err, ErrTransportFailure):
		return err
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), sockerr.IsConnReset(err):
		return fmt.Errorf("%w: %w", ErrPeerDisconnected, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
}
