// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"fmt"
)

// ErrInterrupted is the generic terminal error for a failed session with
// no recoverable content. Callers show it as "interrupted, please retry".
var ErrInterrupted = errors.New("stream interrupted, please retry")

// TransportError is a connection-level failure: the stream could not be
// opened, returned a non-OK status or wrong content type, or died
// mid-read. It is terminal for the session and triggers replay recovery;
// it reaches the caller only if recovery also produced nothing.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Message != "" && e.Status > 0:
		return fmt.Sprintf("transport error (status %d): %s", e.Status, e.Message)
	case e.Message != "":
		return "transport error: " + e.Message
	case e.Err != nil:
		return "transport error: " + e.Err.Error()
	default:
		return "transport error"
	}
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError carries the human-readable message of an `event: error`
// block. Recovery is attempted before it is surfaced.
type RemoteError struct {
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote error"
	}
	return "remote error: " + e.Message
}
