package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
// Publishers holding connections also implement io.Closer.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the structured logger sinks report deliveries and rejections
// to. internal/logger satisfies it.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// discardLogger drops everything; sinks built without a logger use it.
type discardLogger struct{}

func (discardLogger) InfoObj(string, string, interface{})  {}
func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) WarnObj(string, string, interface{})  {}
func (discardLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
