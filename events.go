// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"
)

// Connection lifecycle events accepted by Connector.On.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// events keeps the listener lists for lifecycle events. Listeners run
// synchronously, in registration order, on the goroutine that caused the
// transition.
type events struct {
	bus evbus.Bus
}

func newEvents() *events {
	return &events{bus: evbus.New()}
}

func (e *events) on(event string, listener func()) error {
	switch event {
	case EventConnected, EventDisconnected:
	default:
		return fmt.Errorf("filrpc: unknown event %q", event)
	}
	if listener == nil {
		return fmt.Errorf("filrpc: nil listener for %q", event)
	}
	return e.bus.Subscribe(event, listener)
}

func (e *events) emit(event string) {
	e.bus.Publish(event)
}
