// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeWriteWait = time.Second

// wsTransport keeps one socket open per Connect. Frames are written under
// writeMu; a single read loop hands every inbound frame to the sink.
type wsTransport struct {
	endpoint string
	header   http.Header
	dialer   *websocket.Dialer
	codec    Codec
	log      *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn
	closed  atomic.Bool
}

func newWSTransport(endpoint *url.URL, o *options) (Transport, error) {
	u := *endpoint
	header := o.header.Clone()
	if o.token != "" {
		q := u.Query()
		q.Set("token", o.token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+o.token)
	}
	return &wsTransport{
		endpoint: u.String(),
		header:   header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.handshakeTimeout,
		},
		codec: o.codec,
		log:   o.logger.With(zap.String("transport", "ws")),
	}, nil
}

func (t *wsTransport) Open(ctx context.Context, sink Sink) error {
	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint, t.header)
	if resp != nil && resp.Body != nil {
		_ = CleanlyCloseBody(resp.Body)
	}
	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}
	t.conn = conn
	go t.readLoop(sink)
	return nil
}

func (t *wsTransport) Duplex() bool { return true }

func (t *wsTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if t.conn == nil || t.closed.Load() {
		return nil, &TransportError{Op: "write", Err: net.ErrClosed}
	}
	data, err := t.codec.Encode(req)
	if err != nil {
		return nil, err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}
	return nil, nil
}

func (t *wsTransport) readLoop(sink Sink) {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}
			t.log.Warn("connection lost", zap.Error(err))
			sink.Lost(&TransportError{Op: "read", Err: err})
			return
		}

		resp, n, err := parseFrame(t.codec, data)
		switch {
		case err != nil:
			t.log.Warn("dropping malformed frame", zap.Error(err), zap.ByteString("frame", data))
		case resp != nil:
			sink.Deliver(resp)
		default:
			sink.Notify(n)
		}
	}
}

// Close sends a normal closure frame and closes the socket. The read loop
// exits without reporting a loss.
func (t *wsTransport) Close() error {
	if t.closed.Swap(true) || t.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	return t.conn.Close()
}
