// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	ctx := testContext(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ft := &fakeTransport{duplex: true}
	c := newFakeConnector(t, ft, WithMetrics(m))
	require.NoError(t, c.Connect(ctx))

	ok := c.Exec(ctx, "Filecoin.ChainHead")
	failed := c.Exec(ctx, "Filecoin.ChainHead")
	pending := c.Exec(ctx, "Filecoin.Version")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.inflight))

	sink := ft.capturedSink()
	sink.Deliver(resultFrame(ok.ID, 1))
	sink.Deliver(&Response{ID: failed.ID, Error: &ResponseError{Code: 1, Message: "x"}})
	sink.Deliver(resultFrame(99, 1))
	require.NoError(t, c.Disconnect())
	_, _ = pending.Wait(ctx)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("Filecoin.ChainHead", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("Filecoin.ChainHead", outcomeRemoteError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("Filecoin.Version", outcomeCanceled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues(EventConnected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues(EventDisconnected)))

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.callStarted()
	m.callFinished("A", outcomeOK, 0)
	m.staleReply()
	m.transition(EventConnected)
}
