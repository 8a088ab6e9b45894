package httpclient

import (
	"bytes"
	"context"
	"io"
)

// Request is a single HTTP call handed to a Transport.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Response is the raw outcome of one round trip. Heads holds every response
// head block received, interim 1xx blocks included, in wire format; Body holds
// the final body.
type Response interface {
	Heads() io.Reader
	Body() io.Reader
	Close() error
}

// Transport performs one HTTP request. An error means nothing usable came back.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Logger defines the logging surface the transport relies on.
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

// NewMemoryResponse builds a Response from in-memory streams, for fakes and
// replays.
func NewMemoryResponse(heads, body string) Response {
	return &memoryResponse{heads: []byte(heads), body: []byte(body)}
}

type memoryResponse struct {
	heads []byte
	body  []byte
}

func (m *memoryResponse) Heads() io.Reader { return bytes.NewReader(m.heads) }
func (m *memoryResponse) Body() io.Reader  { return bytes.NewReader(m.body) }
func (m *memoryResponse) Close() error     { return nil }
