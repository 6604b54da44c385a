// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a single channel operation.
//
// Every [*Event] carries one in its spanID attribute, which makes it
// possible to reference a specific operation when aggregating logs
// from many channels.
//
// This function panics if the system random number generator fails.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
