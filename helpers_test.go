// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// fakeTransport records what the connector does and lets tests push
// inbound traffic through the captured sink.
type fakeTransport struct {
	duplex  bool
	openErr error
	reply   func(context.Context, *Request) (*Response, error)

	mu     sync.Mutex
	sink   Sink
	sent   []*Request
	opens  int
	closes int
}

func (f *fakeTransport) Open(_ context.Context, sink Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return f.openErr
	}
	f.sink = sink
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.sent = append(f.sent, req)
	reply := f.reply
	f.mu.Unlock()
	if reply != nil {
		return reply(ctx, req)
	}
	return nil, nil
}

func (f *fakeTransport) Duplex() bool { return f.duplex }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) capturedSink() Sink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sink
}

func (f *fakeTransport) requests() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Request(nil), f.sent...)
}

func (f *fakeTransport) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

var fakeSeq atomic.Int64

// newFakeConnector wires ft in under a scheme of its own.
func newFakeConnector(t *testing.T, ft *fakeTransport, opts ...Option) *Connector {
	t.Helper()
	scheme := fmt.Sprintf("fake%d", fakeSeq.Add(1))
	RegisterTransport(scheme, func(string) (Transport, error) { return ft, nil })
	c, err := New(scheme+"://node", opts...)
	require.NoError(t, err)
	return c
}

func resultFrame(id uint64, result interface{}) *Response {
	raw, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	return &Response{ID: id, Result: raw}
}

// wsNode is a WebSocket node whose per-connection behavior is set by the
// test. Every accepted request is also recorded.
type wsNode struct {
	*httptest.Server
	conns    atomic.Int64
	lastReq  atomic.Value // *http.Request
	upgrader websocket.Upgrader
}

func newWSNode(t *testing.T, serve func(conn *websocket.Conn)) *wsNode {
	t.Helper()
	n := &wsNode{}
	n.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.lastReq.Store(r)
		conn, err := n.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n.conns.Add(1)
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(n.Close)
	return n
}

func (n *wsNode) endpoint() string {
	return "ws" + strings.TrimPrefix(n.URL, "http") + "/rpc/v0"
}

func (n *wsNode) request() *http.Request {
	r, _ := n.lastReq.Load().(*http.Request)
	return r
}

// readRequest reads one call frame from the client side of conn.
func readRequest(conn *websocket.Conn) (*Request, error) {
	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func writeResult(conn *websocket.Conn, id uint64, result interface{}) error {
	return conn.WriteJSON(map[string]interface{}{
		"jsonrpc": Version,
		"id":      id,
		"result":  result,
	})
}

// echoNode replies to every call with the method name as result.
func echoNode(conn *websocket.Conn) {
	for {
		req, err := readRequest(conn)
		if err != nil {
			return
		}
		if err := writeResult(conn, req.ID, req.Method); err != nil {
			return
		}
	}
}
