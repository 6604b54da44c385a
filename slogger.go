// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

// SLogger abstracts the [*slog.Logger] behavior.
//
// Channels use two log levels:
//   - Info for the single event that each channel operation emits
//     (connect, connection-refused, send, receive, disconnect, usable)
//   - Debug for transport-level events (dial, accept, read, write, close)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default discards all output, following the library convention of
// not writing to stdout/stderr unless explicitly configured.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {}
