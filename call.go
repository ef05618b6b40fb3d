// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// idGenerator hands out call ids for one Connector. Ids start at 1 and only
// grow, so a reply addressed to a call from an earlier connection can never
// match a fresh call.
type idGenerator struct {
	last atomic.Uint64
}

func (g *idGenerator) next() uint64 {
	return g.last.Add(1)
}

// Call is the deferred result of Exec. It settles exactly once, either with
// the raw result of the reply or with an error, and may be awaited by any
// number of goroutines.
type Call struct {
	ID      uint64
	Method  string
	Created time.Time

	done   chan struct{}
	once   sync.Once
	result json.RawMessage
	err    error

	// onReply runs on the settling goroutine before Done is closed, and only
	// for successful replies. A non-nil return turns the call into a failure.
	onReply func(json.RawMessage) error
}

func newCall(id uint64, method string) *Call {
	return &Call{
		ID:      id,
		Method:  method,
		Created: time.Now(),
		done:    make(chan struct{}),
	}
}

// failedCall returns a Call that is already settled with err.
func failedCall(method string, err error) *Call {
	c := newCall(0, method)
	c.settle(nil, err)
	return c
}

// settle records the outcome. It reports false if the call had already
// settled.
func (c *Call) settle(result json.RawMessage, err error) bool {
	settled := false
	c.once.Do(func() {
		if err == nil && c.onReply != nil {
			if herr := c.onReply(result); herr != nil {
				result, err = nil, herr
			}
		}
		c.result, c.err = result, err
		settled = true
		close(c.done)
	})
	return settled
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Err returns the settlement error, or nil if the call succeeded or has not
// settled yet.
func (c *Call) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the call settles or ctx ends. Giving up on ctx does not
// cancel the remote call.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Decode waits for the call and unmarshals its result into v. A JSON null
// result leaves v untouched.
func (c *Call) Decode(ctx context.Context, v interface{}) error {
	raw, err := c.Wait(ctx)
	if err != nil {
		return err
	}
	if v == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s result: %w", c.Method, err)
	}
	return nil
}
