// SPDX-License-Identifier: GPL-3.0-or-later

// Package sockerr answers yes/no questions about socket errors.
//
// Unlike an error classifier, which maps an error to a label for logging,
// the predicates in this package drive control flow (e.g., deciding whether
// a failed connect is a refused connection that must not propagate).
package sockerr

import "errors"

// IsConnRefused returns whether err wraps the platform's "connection refused" errno.
func IsConnRefused(err error) bool {
	return err != nil && errors.Is(err, errECONNREFUSED)
}

// IsConnReset returns whether err wraps a "connection reset" or
// "connection aborted" errno, i.e., the peer tore down the connection.
func IsConnReset(err error) bool {
	return err != nil && (errors.Is(err, errECONNRESET) || errors.Is(err, errECONNABORTED))
}
