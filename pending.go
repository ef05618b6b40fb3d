// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// pendingCalls maps in-flight call ids to their deferred results. An entry
// is removed exactly once, by a reply, a local failure, forget or drain.
type pendingCalls struct {
	mu      sync.Mutex
	calls   map[uint64]*Call
	log     *zap.Logger
	metrics *Metrics
}

func newPendingCalls(log *zap.Logger, metrics *Metrics) *pendingCalls {
	return &pendingCalls{
		calls:   make(map[uint64]*Call),
		log:     log,
		metrics: metrics,
	}
}

func (p *pendingCalls) register(c *Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.calls[c.ID]; ok {
		return errDuplicateCall
	}
	p.calls[c.ID] = c
	p.metrics.callStarted()
	return nil
}

func (p *pendingCalls) take(id uint64) (*Call, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.calls[id]
	if ok {
		delete(p.calls, id)
	}
	return c, ok
}

// settle completes the call addressed by resp. Replies for ids that are not
// pending (late, abandoned or unknown) are logged and dropped.
func (p *pendingCalls) settle(resp *Response) bool {
	c, ok := p.take(resp.ID)
	if !ok {
		p.metrics.staleReply()
		p.log.Debug("dropping reply for unknown call", zap.Uint64("id", resp.ID))
		return false
	}
	result, err := resp.outcome()
	p.finish(c, result, err)
	return true
}

// reject fails a single pending call, typically after a send error.
func (p *pendingCalls) reject(id uint64, err error) bool {
	c, ok := p.take(id)
	if !ok {
		return false
	}
	p.finish(c, nil, err)
	return true
}

// forget removes a call without settling it. A reply that arrives later is
// treated as stale.
func (p *pendingCalls) forget(id uint64) bool {
	c, ok := p.take(id)
	if ok {
		p.metrics.callFinished(c.Method, outcomeAbandoned, time.Since(c.Created))
	}
	return ok
}

// drain rejects every pending call with a CancellationError carrying reason
// and leaves the registry empty.
func (p *pendingCalls) drain(reason error) int {
	p.mu.Lock()
	calls := p.calls
	p.calls = make(map[uint64]*Call)
	p.mu.Unlock()

	for _, c := range calls {
		p.finish(c, nil, &CancellationError{Method: c.Method, Reason: reason})
	}
	return len(calls)
}

func (p *pendingCalls) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *pendingCalls) finish(c *Call, result []byte, err error) {
	c.settle(result, err)
	p.metrics.callFinished(c.Method, outcomeOf(c.err), time.Since(c.Created))
}
