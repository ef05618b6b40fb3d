// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Lotus pushes channel values as notifications on the same socket.
const (
	chanValueMethod = "xrpc.ch.val"
	chanCloseMethod = "xrpc.ch.close"
)

var errSubscriptionClosed = errors.New("filrpc: subscription closed")

// Subscription receives the values a node pushes for a channel-returning
// method. Values is closed when the node closes the channel, when Close is
// called, or when the connection goes away; Err then reports why.
type Subscription struct {
	ID     uint64
	Method string

	owner  *subscriptions
	values chan json.RawMessage

	mu     sync.Mutex
	closed bool
	err    error
}

// Values delivers the pushed values in arrival order.
func (s *Subscription) Values() <-chan json.RawMessage {
	return s.values
}

// Err returns nil while the subscription is open or after the node closed
// it normally, and the teardown reason otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops local delivery only. The node is not told and keeps pushing
// values for the channel until the connection closes; they are dropped.
func (s *Subscription) Close() {
	s.owner.remove(s.ID)
	s.close(nil)
}

func (s *Subscription) deliver(v json.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.values <- v:
		return true
	default:
		return false
	}
}

func (s *Subscription) close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.values)
}

// subscriptions holds the open channels of one connection.
type subscriptions struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	done   error
	buffer int
	log    *zap.Logger
}

func newSubscriptions(buffer int, log *zap.Logger) *subscriptions {
	if buffer < 1 {
		buffer = 1
	}
	return &subscriptions{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// add registers channel id. It fails once the connection has been torn
// down, so a reply racing with Disconnect cannot leave a channel open.
func (ss *subscriptions) add(id uint64, method string) (*Subscription, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.done != nil {
		return nil, &CancellationError{Method: method, Reason: ss.done}
	}
	if old, ok := ss.subs[id]; ok {
		old.close(errSubscriptionClosed)
	}
	s := &Subscription{
		ID:     id,
		Method: method,
		owner:  ss,
		values: make(chan json.RawMessage, ss.buffer),
	}
	ss.subs[id] = s
	return s, nil
}

func (ss *subscriptions) remove(id uint64) (*Subscription, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.subs[id]
	if ok {
		delete(ss.subs, id)
	}
	return s, ok
}

func (ss *subscriptions) get(id uint64) (*Subscription, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.subs[id]
	return s, ok
}

// dispatch routes xrpc.ch.val and xrpc.ch.close notifications. Anything
// else is logged and ignored.
func (ss *subscriptions) dispatch(n *Notification) {
	var params []json.RawMessage
	if err := json.Unmarshal(n.Params, &params); err != nil || len(params) == 0 {
		ss.log.Warn("dropping notification with bad params", zap.String("method", n.Method))
		return
	}
	var id uint64
	if err := json.Unmarshal(params[0], &id); err != nil {
		ss.log.Warn("dropping notification with bad channel id",
			zap.String("method", n.Method), zap.ByteString("id", params[0]))
		return
	}

	switch n.Method {
	case chanValueMethod:
		s, ok := ss.get(id)
		if !ok {
			ss.log.Debug("dropping value for unknown channel", zap.Uint64("channel", id))
			return
		}
		var v json.RawMessage
		if len(params) > 1 {
			v = params[1]
		}
		if !s.deliver(v) {
			ss.log.Warn("subscription buffer full, dropping value",
				zap.Uint64("channel", id), zap.String("method", s.Method))
		}
	case chanCloseMethod:
		if s, ok := ss.remove(id); ok {
			s.close(nil)
		}
	default:
		ss.log.Debug("ignoring notification", zap.String("method", n.Method))
	}
}

// closeAll closes every subscription with reason and refuses new ones.
func (ss *subscriptions) closeAll(reason error) {
	ss.mu.Lock()
	subs := ss.subs
	ss.subs = make(map[uint64]*Subscription)
	ss.done = reason
	ss.mu.Unlock()

	for _, s := range subs {
		s.close(reason)
	}
}
