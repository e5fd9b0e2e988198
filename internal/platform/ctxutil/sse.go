package ctxutil

import (
	"context"

	"github.com/stoalearn/stoa-backend/internal/realtime"
)

type sseDataKey struct{}

// SSEData buffers realtime messages produced while handling a request.
// Handlers flush the buffer to the hub only after the request succeeds, so
// clients never observe events from rolled-back transactions.
type SSEData struct {
	Messages []realtime.SSEMessage
}

func WithSSEData(ctx context.Context) context.Context {
	data := &SSEData{
		Messages: make([]realtime.SSEMessage, 0),
	}
	return context.WithValue(ctx, sseDataKey{}, data)
}

func GetSSEData(ctx context.Context) *SSEData {
	val := ctx.Value(sseDataKey{})
	ssd, ok := val.(*SSEData)
	if !ok {
		return nil
	}
	return ssd
}

func (d *SSEData) AppendMessage(msg realtime.SSEMessage) {
	d.Messages = append(d.Messages, msg)
}
