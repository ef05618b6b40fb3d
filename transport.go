// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Transport types, keyed by endpoint scheme.
const (
	TransportHTTP       = "http"  // one POST per call
	TransportHTTPS      = "https" // one POST per call, TLS
	TransportWebSocket  = "ws"    // persistent duplex socket
	TransportWebSockets = "wss"   // persistent duplex socket, TLS
	TransportGRPC       = "grpc"  // JSON envelopes over a unary gRPC method
)

// transportFunc builds an unopened Transport for endpoint.
type transportFunc func(endpoint *url.URL, o *options) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportFunc{
		TransportHTTP:       newHTTPTransport,
		TransportHTTPS:      newHTTPTransport,
		TransportWebSocket:  newWSTransport,
		TransportWebSockets: newWSTransport,
	}
)

// registerTransport registers a new transport under scheme.
func registerTransport(scheme string, f transportFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[scheme] = f
}

// RegisterTransport makes endpoints with the given scheme use transports
// built by f. It replaces any existing registration for scheme.
func RegisterTransport(scheme string, f func(endpoint string) (Transport, error)) {
	registerTransport(scheme, func(endpoint *url.URL, _ *options) (Transport, error) {
		return f(endpoint.String())
	})
}

// AvailableTransports returns the registered schemes in sorted order.
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	_, ok := transports[name]
	return ok
}

func lookupTransport(endpoint *url.URL, o *options) (transportFunc, error) {
	name := o.transport
	if name == "" {
		name = endpoint.Scheme
	}
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	f, ok := transports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
	return f, nil
}
