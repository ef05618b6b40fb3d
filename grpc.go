// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// DefaultGRPCMethod is the unary method a gRPC gateway exposes for JSON-RPC
// envelopes. Request and reply messages are the JSON envelopes themselves.
// Lotus nodes do not serve it; grpc:// endpoints need a gateway in front of
// the node that forwards the envelopes to its JSON-RPC API.
const DefaultGRPCMethod = "/filrpc.JSONRPC/Call"

func init() {
	registerTransport(TransportGRPC, newGRPCTransport)
}

// grpcTransport is a request/response transport that carries each envelope
// as one unary gRPC call.
type grpcTransport struct {
	target       string
	method       string
	codec        grpcCodec
	token        string
	healthMethod string
	log          *zap.Logger

	conn   *grpc.ClientConn
	closed atomic.Bool
}

func newGRPCTransport(endpoint *url.URL, o *options) (Transport, error) {
	if endpoint.Host == "" {
		return nil, fmt.Errorf("grpc endpoint %q has no host", endpoint.String())
	}
	return &grpcTransport{
		target:       endpoint.Host,
		method:       o.grpcMethod,
		codec:        grpcCodec{o.codec},
		token:        o.token,
		healthMethod: o.healthMethod,
		log:          o.logger.With(zap.String("transport", "grpc")),
	}, nil
}

func (t *grpcTransport) Open(ctx context.Context, _ Sink) error {
	conn, err := grpc.NewClient(t.target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return &TransportError{Op: "grpc dial", Err: err}
	}
	t.conn = conn
	if t.healthMethod == "" {
		return nil
	}
	if _, err := t.Send(ctx, newRequest(0, t.healthMethod, nil)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("health check %s: %w", t.healthMethod, err)
	}
	return nil
}

func (t *grpcTransport) Duplex() bool { return false }

func (t *grpcTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if t.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+t.token)
	}
	var reply frame
	if err := t.conn.Invoke(ctx, t.method, req, &reply, grpc.ForceCodec(t.codec)); err != nil {
		t.log.Debug("invoke failed", zap.String("method", req.Method), zap.Error(err))
		return nil, &TransportError{Op: "grpc invoke", Err: err}
	}
	return reply.reply(req.ID)
}

func (t *grpcTransport) Close() error {
	if t.closed.Swap(true) || t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
