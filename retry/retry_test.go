// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/filrpc"
)

type scriptedCaller struct {
	errs  []error
	calls int
}

func (s *scriptedCaller) Call(_ context.Context, _ string, result interface{}, _ ...interface{}) error {
	s.calls++
	if len(s.errs) == 0 {
		if p, ok := result.(*string); ok {
			*p = "done"
		}
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func transportErr() error {
	return &filrpc.TransportError{Op: "post", Err: errors.New("connection reset")}
}

func fast() []Option {
	return []Option{WithInitialInterval(time.Millisecond), WithMaxInterval(time.Millisecond)}
}

func TestRetriesTransportErrors(t *testing.T) {
	c := &scriptedCaller{errs: []error{transportErr(), transportErr()}}
	var notified int
	opts := append(fast(), WithNotify(func(error, time.Duration) { notified++ }))

	var got string
	require.NoError(t, Call(context.Background(), c, "Filecoin.ChainHead", &got, nil, opts...))
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, c.calls)
	assert.Equal(t, 2, notified)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	c := &scriptedCaller{errs: []error{transportErr(), transportErr(), transportErr()}}

	err := Call(context.Background(), c, "Filecoin.ChainHead", nil, nil, append(fast(), WithMaxAttempts(2))...)
	var te *filrpc.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, c.calls)
}

func TestDoesNotRetryFinalErrors(t *testing.T) {
	for _, final := range []error{
		&filrpc.RemoteError{Code: 1, Message: "bad params"},
		&filrpc.ProtocolError{Msg: "received status code: 500"},
		filrpc.ErrNotConnected,
		&filrpc.CancellationError{Reason: filrpc.ErrCanceled},
	} {
		c := &scriptedCaller{errs: []error{final}}
		err := Call(context.Background(), c, "Filecoin.ChainHead", nil, nil, fast()...)
		assert.ErrorIs(t, err, final)
		assert.Equal(t, 1, c.calls)
	}
}

func TestStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &scriptedCaller{errs: []error{transportErr(), transportErr()}}

	err := Call(ctx, c, "Filecoin.ChainHead", nil, nil, fast()...)
	require.Error(t, err)
	assert.Equal(t, 1, c.calls)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(transportErr()))
	assert.False(t, Retryable(&filrpc.TransportError{Op: "post", Err: context.Canceled}))
	assert.False(t, Retryable(&filrpc.RemoteError{}))
}
