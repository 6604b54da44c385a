// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"net"
	"time"
)

// Config holds the dependencies shared by the channels of a process.
//
// Pass this to [NewClientChannel] and [NewServerChannel] to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig]. Channels built from
// the same Config share its [*Registry].
type Config struct {
	// Dialer is used by [*Channel.Connect] in the client role.
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the default [SLogger] for new channels.
	//
	// Set by [NewConfig] to [DefaultSLogger]. Override per channel
	// using [*Channel.SetLogger].
	Logger SLogger

	// ObserveIO enables Debug-level logging of every read, write,
	// and close performed on the transport.
	//
	// Set by [NewConfig] to false.
	ObserveIO bool

	// Registry is where [*Channel.SetName] registers channels.
	//
	// Set by [NewConfig] to a fresh [*Registry].
	Registry *Registry

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		Logger:        DefaultSLogger(),
		ObserveIO:     false,
		Registry:      NewRegistry(),
		TimeNow:       time.Now,
	}
}
