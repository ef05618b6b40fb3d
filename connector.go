// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// State is the connection state of a Connector.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Connector correlates calls to replies over a Transport chosen by the
// endpoint scheme. It is safe for concurrent use.
//
// Lifecycle listeners registered with On run synchronously while the
// Connector holds its lifecycle lock. A listener that wants to call
// Connect, Disconnect or On must do so from another goroutine.
type Connector struct {
	endpoint *url.URL
	opts     *options
	log      *zap.Logger

	ids     idGenerator
	pending *pendingCalls
	events  *events

	// lifecycle serializes transitions and the events they emit.
	lifecycle sync.Mutex

	mu        sync.Mutex
	state     State
	transport Transport
	subs      *subscriptions
	// conn ends when the current connection is torn down. Sends derive
	// from it so teardown aborts requests that are still in flight.
	conn       context.Context
	cancelConn context.CancelFunc
}

// New returns a Connector for endpoint. No network activity happens until
// Connect.
func New(endpoint string, opts ...Option) (*Connector, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	o := newOptions(opts)
	if _, err := lookupTransport(u, o); err != nil {
		return nil, err
	}
	log := o.logger.Named("filrpc").With(zap.String("endpoint", u.Redacted()))
	return &Connector{
		endpoint: u,
		opts:     o,
		log:      log,
		pending:  newPendingCalls(log, o.metrics),
		events:   newEvents(),
	}, nil
}

// Endpoint returns the address the Connector was built for.
func (c *Connector) Endpoint() string {
	return c.endpoint.String()
}

// State returns the current connection state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// On registers listener for EventConnected or EventDisconnected. Each
// listener fires once per matching transition.
func (c *Connector) On(event string, listener func()) error {
	return c.events.on(event, listener)
}

// Connect opens the transport. It returns immediately if the Connector is
// already connected. On failure the state stays Disconnected and no event
// fires.
func (c *Connector) Connect(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.state == Connected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()

	tr, err := c.open(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		c.log.Debug("connect failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.state = Connected
	c.transport = tr
	c.subs = newSubscriptions(c.opts.subBuffer, c.log)
	c.conn, c.cancelConn = context.WithCancel(context.Background())
	c.mu.Unlock()

	c.log.Info("connected")
	c.emit(EventConnected)
	return nil
}

func (c *Connector) open(ctx context.Context) (Transport, error) {
	build, err := lookupTransport(c.endpoint, c.opts)
	if err != nil {
		return nil, err
	}
	tr, err := build(c.endpoint, c.opts)
	if err != nil {
		return nil, err
	}
	if err := tr.Open(ctx, &connSink{c: c, tr: tr}); err != nil {
		_ = tr.Close()
		return nil, err
	}
	return tr, nil
}

// Disconnect closes the transport, rejects every in-flight call with a
// CancellationError wrapping ErrCanceled, closes subscriptions and emits
// EventDisconnected. It is a no-op when not connected.
func (c *Connector) Disconnect() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.teardown(nil, ErrCanceled)
}

// teardown moves a connected Connector to Disconnected. When expect is set,
// it only acts if expect is still the active transport. Callers hold the
// lifecycle lock.
func (c *Connector) teardown(expect Transport, reason error) error {
	c.mu.Lock()
	if c.state != Connected || (expect != nil && c.transport != expect) {
		c.mu.Unlock()
		return nil
	}
	tr, subs, cancel := c.transport, c.subs, c.cancelConn
	c.transport, c.subs = nil, nil
	c.conn, c.cancelConn = nil, nil
	c.state = Disconnected
	c.mu.Unlock()

	// Exec refuses new calls from here on, so the drain sees every call
	// that will ever be registered on this connection. Sends that have not
	// reached the wire yet are aborted first.
	cancel()
	err := tr.Close()
	n := c.pending.drain(reason)
	subs.closeAll(reason)

	c.log.Info("disconnected", zap.Int("canceled", n), zap.NamedError("reason", reason))
	c.emit(EventDisconnected)
	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

func (c *Connector) lost(tr Transport, err error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	_ = c.teardown(tr, fmt.Errorf("%w: %w", ErrConnectionLost, err))
}

func (c *Connector) emit(event string) {
	c.opts.metrics.transition(event)
	c.events.emit(event)
}

// Exec issues method with params and returns its deferred result. It does
// not wait for the reply. When the Connector is not connected the returned
// Call has already failed with ErrNotConnected.
func (c *Connector) Exec(ctx context.Context, method string, params ...interface{}) *Call {
	return c.exec(ctx, method, params, nil)
}

func (c *Connector) exec(ctx context.Context, method string, params []interface{}, onReply func(json.RawMessage) error) *Call {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return failedCall(method, ErrNotConnected)
	}
	tr, conn := c.transport, c.conn
	call := newCall(c.ids.next(), method)
	call.onReply = onReply
	if err := c.pending.register(call); err != nil {
		c.mu.Unlock()
		return failedCall(method, err)
	}
	c.mu.Unlock()

	req := newRequest(call.ID, method, params)
	if tr.Duplex() {
		// Written inline so frames leave in Exec order.
		c.send(ctx, conn, tr, req)
	} else {
		go c.send(ctx, conn, tr, req)
	}
	return call
}

// send runs the transport send under ctx, cut short when conn ends.
func (c *Connector) send(ctx, conn context.Context, tr Transport, req *Request) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(conn, cancel)
	defer stop()

	resp, err := tr.Send(ctx, req)
	switch {
	case err != nil:
		c.pending.reject(req.ID, err)
	case resp != nil:
		c.pending.settle(resp)
	}
}

// Call issues method, waits for the reply and decodes its result into
// result, which may be nil. If ctx ends first the call is abandoned and a
// late reply is dropped.
func (c *Connector) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	call := c.Exec(ctx, method, params...)
	if err := c.wait(ctx, call); err != nil {
		return err
	}
	return call.Decode(ctx, result)
}

func (c *Connector) wait(ctx context.Context, call *Call) error {
	select {
	case <-call.Done():
		return call.Err()
	case <-ctx.Done():
		c.pending.forget(call.ID)
		return ctx.Err()
	}
}

// Subscribe issues a channel-returning method and returns the Subscription
// fed by the node's xrpc.ch.val notifications. It requires a duplex
// transport.
func (c *Connector) Subscribe(ctx context.Context, method string, params ...interface{}) (*Subscription, error) {
	c.mu.Lock()
	tr, subs := c.transport, c.subs
	c.mu.Unlock()
	if tr == nil {
		return nil, ErrNotConnected
	}
	if !tr.Duplex() {
		return nil, ErrSubscriptionsUnsupported
	}

	var sub *Subscription
	call := c.exec(ctx, method, params, func(raw json.RawMessage) error {
		var id uint64
		if err := json.Unmarshal(raw, &id); err != nil {
			return &ProtocolError{Msg: method + " did not return a channel id", Err: err}
		}
		s, err := subs.add(id, method)
		if err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err := c.wait(ctx, call); err != nil {
		return nil, err
	}
	return sub, nil
}

// connSink feeds one transport's inbound traffic back into its Connector.
type connSink struct {
	c  *Connector
	tr Transport
}

func (s *connSink) Deliver(resp *Response) {
	s.c.pending.settle(resp)
}

func (s *connSink) Notify(n *Notification) {
	s.c.mu.Lock()
	subs := s.c.subs
	current := s.c.transport == s.tr
	s.c.mu.Unlock()
	if subs == nil || !current {
		return
	}
	subs.dispatch(n)
}

func (s *connSink) Lost(err error) {
	s.c.lost(s.tr, err)
}
