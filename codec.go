// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"encoding/json"
)

// Codec encodes outbound envelopes and decodes inbound ones.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// JSONCodec is a JSON-based codec
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// defaultCodec is used when no codec is specified
var defaultCodec Codec = JSONCodec{}

// grpcCodec adapts a Codec to grpc's encoding.Codec so envelopes can ride a
// unary gRPC method without protobuf.
type grpcCodec struct {
	Codec
}

func (c grpcCodec) Marshal(v any) ([]byte, error) { return c.Encode(v) }

func (c grpcCodec) Unmarshal(data []byte, v any) error { return c.Decode(data, v) }

func (grpcCodec) Name() string { return "json" }
