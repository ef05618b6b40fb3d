// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Exec and Call when the Connector is not
	// in the connected state. No network I/O is attempted.
	ErrNotConnected = errors.New("filrpc: not connected")

	// ErrCanceled is the reason carried by calls drained by Disconnect.
	ErrCanceled = errors.New("filrpc: call canceled by disconnect")

	// ErrConnectionLost is the reason carried by calls drained because the
	// transport went away without Disconnect being called.
	ErrConnectionLost = errors.New("filrpc: connection lost")

	// ErrSubscriptionsUnsupported is returned by Subscribe on transports
	// that cannot carry server notifications.
	ErrSubscriptionsUnsupported = errors.New("filrpc: transport does not support subscriptions")

	// ErrUnknownTransport is returned by New for endpoint schemes without a
	// registered transport.
	ErrUnknownTransport = errors.New("filrpc: unknown transport")

	errDuplicateCall = errors.New("filrpc: duplicate call id")
)

// TransportError reports a network or socket failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("filrpc: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a reply that could not be understood: a non-2xx HTTP
// status, a body that is not JSON-RPC, or a frame without result or error.
type ProtocolError struct {
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "filrpc: protocol: " + e.Msg
	}
	return fmt.Sprintf("filrpc: protocol: %s: %v", e.Msg, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteError is a JSON-RPC error object returned by the node. Code and
// Message are passed through verbatim.
type RemoteError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("filrpc: remote error %d: %s", e.Code, e.Message)
}

// CancellationError rejects calls that were still in flight when the
// connection was torn down. Reason is ErrCanceled or ErrConnectionLost,
// optionally wrapping the transport failure.
type CancellationError struct {
	Method string
	Reason error
}

func (e *CancellationError) Error() string {
	if e.Method == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Reason)
}

func (e *CancellationError) Unwrap() error { return e.Reason }
