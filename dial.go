// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
)

// Dial creates a Connector for endpoint and connects it. The transport is
// picked from the endpoint scheme unless WithTransport overrides it.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Connector, error) {
	c, err := New(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// DialAPIInfo connects to the node described by a Lotus API info string
// such as the value of FULLNODE_API_INFO. scheme is "ws" or "http" and
// version is the API version path segment, e.g. "v0".
func DialAPIInfo(ctx context.Context, info, scheme, version string, opts ...Option) (*Connector, error) {
	ai := ParseAPIInfo(info)
	endpoint, err := ai.Endpoint(scheme, version)
	if err != nil {
		return nil, err
	}
	if ai.Token != "" {
		opts = append([]Option{WithToken(ai.Token)}, opts...)
	}
	return Dial(ctx, endpoint, opts...)
}
