package interfaces

import "context"

// Monitor is a fire-and-forget telemetry sink. Implementations must be
// best-effort: a failing backend never fails the request path, so none
// of these methods return errors.
type Monitor interface {
	RecordEvent(ctx context.Context, name string, attrs map[string]string)
	RecordMetric(ctx context.Context, name string, value float64, attrs map[string]string)
}
