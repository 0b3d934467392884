package publishers

import "context"

// Publisher sends decoded telemetry events to a downstream sink (SQS, SNS,
// Pub/Sub, HTTP, etc).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
