package listeners

import (
	"context"

	"github.com/virinco/vicpack-relay/internal/domain"
)

// Handler processes one raw uplink. A non-nil error marks the invocation as
// failed; redelivery is then up to the broker's policy.
type Handler func(ctx context.Context, up domain.Uplink) error

// Listener consumes raw uplinks from an ingestion endpoint and invokes the
// handler once per message.
type Listener interface {
	ID() string
	Type() string
	// Listen blocks until the context is cancelled or the connection fails.
	Listen(ctx context.Context, handler Handler) error
	Close() error
}

// Logger defines the logging surface listeners rely on. It matches the
// internal logger without importing it, keeping pkg free of internal deps.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
