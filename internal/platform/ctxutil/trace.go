package ctxutil

import "context"

type traceKey struct{}

// TraceData identifies one request across logs and response headers.
// TraceID follows the active OTel span when one exists; RequestID is
// minted per request when the caller does not supply one.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

// GetTraceData returns nil when the trace middleware never ran.
func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceKey{}).(*TraceData)
	return td
}
