package services

import (
	"context"

	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
	"github.com/stoalearn/stoa-backend/internal/realtime/bus"
)

// SSEEmitter abstracts where realtime messages go: straight to the
// in-process hub on a single instance, or through the Redis bus when
// several instances share clients. Bus-published messages come back to
// every hub via the forwarder, the publisher's included.
type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

type RedisEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

// Emit drops the message when Redis is unreachable; realtime updates
// are advisory and clients refetch state on reconnect anyway.
func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("SSE publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}
