// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Transport moves envelopes between a Connector and a node.
type Transport interface {
	// Open establishes the channel. Replies and notifications that arrive
	// outside of Send are handed to sink until Close is called.
	Open(ctx context.Context, sink Sink) error

	// Send writes req. Request/response transports return the reply;
	// duplex transports return a nil Response once the frame is written
	// and deliver the reply to the sink later.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Duplex reports whether replies arrive asynchronously through the sink.
	Duplex() bool

	// Close releases the channel. It is safe to call more than once and
	// does not settle pending calls.
	Close() error
}

// Sink receives inbound traffic from a duplex transport.
type Sink interface {
	Deliver(resp *Response)
	Notify(n *Notification)
	// Lost reports that the channel closed without Close being called.
	Lost(err error)
}

// Option configures a Connector.
type Option func(*options)

type options struct {
	codec            Codec
	logger           *zap.Logger
	metrics          *Metrics
	token            string
	header           http.Header
	httpClient       *http.Client
	handshakeTimeout time.Duration
	healthMethod     string
	subBuffer        int
	grpcMethod       string
	transport        string
}

func newOptions(opts []Option) *options {
	o := &options{
		codec:            defaultCodec,
		logger:           zap.NewNop(),
		header:           make(http.Header),
		handshakeTimeout: 10 * time.Second,
		subBuffer:        64,
		grpcMethod:       DefaultGRPCMethod,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCodec sets the codec used to encode requests and decode replies on
// every transport.
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records call statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithToken authenticates with a Lotus API token.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithHeader adds a header to every HTTP request and to the WebSocket
// handshake.
func WithHeader(key, value string) Option {
	return func(o *options) { o.header.Add(key, value) }
}

// WithHTTPClient replaces the client used by the HTTP transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithHandshakeTimeout bounds the WebSocket opening handshake.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithHealthCheck makes Connect on request/response transports issue method
// once and fail if the node cannot be reached. A remote error still counts
// as reachable.
func WithHealthCheck(method string) Option {
	return func(o *options) { o.healthMethod = method }
}

// WithSubscriptionBuffer sets how many undelivered values a Subscription
// holds before new ones are dropped.
func WithSubscriptionBuffer(n int) Option {
	return func(o *options) { o.subBuffer = n }
}

// WithGRPCMethod sets the full method name of the gRPC bridge.
func WithGRPCMethod(method string) Option {
	return func(o *options) { o.grpcMethod = method }
}

// WithTransport explicitly sets the transport type instead of deriving it
// from the endpoint scheme.
func WithTransport(t string) Option {
	return func(o *options) { o.transport = t }
}
