// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package filrpc is a transport-agnostic JSON-RPC connector for Filecoin
// (Lotus) nodes. It turns a method name and positional parameters into a
// correlated remote call and reports connection lifecycle as events.
//
// # Transport Selection
//
// The endpoint scheme picks the transport:
//
//	http://, https://   one POST per call
//	ws://, wss://       one persistent socket, replies matched by id
//	grpc://             JSON envelopes over a unary gRPC method
//
// Lotus nodes speak HTTP and WebSocket only. The grpc:// transport needs a
// gateway that serves DefaultGRPCMethod (or the method set with
// WithGRPCMethod) and forwards the envelopes to the node.
//
// # Usage
//
//	c, err := filrpc.New("ws://127.0.0.1:1234/rpc/v0", filrpc.WithToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c.On(filrpc.EventDisconnected, func() { log.Print("node went away") })
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	// Blocking call
//	var head TipSet
//	err = c.Call(ctx, "Filecoin.ChainHead", &head)
//
//	// Deferred call
//	call := c.Exec(ctx, "Filecoin.Version")
//	raw, err := call.Wait(ctx)
//
// # Semantics
//
// Ids are per Connector and strictly increasing. Replies are matched by id,
// never by order. Disconnect, or the loss of a WebSocket, rejects every
// in-flight call with a CancellationError; replies that arrive afterwards
// are logged and dropped. Exec before Connect fails with ErrNotConnected
// without touching the network. The connector never retries and never
// reconnects on its own; see package retry for a caller-side policy.
//
// # Architecture
//
//   - client.go: Transport and Sink interfaces, options
//   - connector.go: state machine, Exec/Call/Subscribe, lifecycle events
//   - pending.go: in-flight call registry
//   - call.go: deferred results and id generation
//   - http.go, websocket.go, grpc.go: transports
//   - transport.go: scheme registry
//   - subscription.go: Lotus xrpc.ch.val channels
//   - apiinfo.go: FULLNODE_API_INFO parsing
package filrpc
