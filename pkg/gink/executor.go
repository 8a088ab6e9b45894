package gink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/gink-client/pkg/httpclient"
)

// DefaultMaxRedirects bounds a followed redirect chain.
const DefaultMaxRedirects = 10

// Executor issues single requests through a Transport and turns the raw
// response into a Result: it parses the head stream, classifies the status,
// rewrites URL references of JSON bodies and follows redirects.
type Executor struct {
	transport    httpclient.Transport
	log          Logger
	maxRedirects int
}

// NewExecutor builds an Executor. maxRedirects <= 0 selects DefaultMaxRedirects.
func NewExecutor(t httpclient.Transport, log Logger, maxRedirects int) *Executor {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &Executor{
		transport:    t,
		log:          ensureLogger(log),
		maxRedirects: maxRedirects,
	}
}

// Execute performs method on url with an optional JSON body. When follow is
// set, 3xx responses are chased with GET requests to their resolved Location.
func (e *Executor) Execute(ctx context.Context, url, method string, body any, follow bool) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	return e.execute(ctx, url, method, body, follow, 0)
}

func (e *Executor) execute(ctx context.Context, url, method string, body any, follow bool, hop int) *Result {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	req, err := buildRequest(url, method, body)
	if err != nil {
		return e.transportFailure(url, method, err)
	}

	start := time.Now()
	resp, err := e.transport.Send(ctx, req)
	if err != nil {
		return e.transportFailure(url, method, err)
	}
	defer resp.Close()

	heads, err := ParseHeads(resp.Heads())
	if err != nil {
		return e.transportFailure(url, method, fmt.Errorf("read heads: %w", err))
	}
	raw, err := ReadBody(resp.Body())
	if err != nil {
		return e.transportFailure(url, method, fmt.Errorf("read body: %w", err))
	}
	head := LastHead(heads)

	e.log.DebugObj("gink request completed", "gink_request", map[string]any{
		"method":     method,
		"url":        url,
		"status":     head.Status,
		"heads":      len(heads),
		"body_bytes": len(raw),
		"hop":        hop,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	res := e.classify(ctx, url, head, raw, follow, hop)
	if res.Err != nil && hop == 0 {
		e.log.WarnObj("gink request failed", "gink_error", map[string]any{
			"method": method,
			"url":    url,
			"status": res.Status(),
			"error":  res.Indicator(),
		})
	}
	return res
}

func (e *Executor) classify(ctx context.Context, url string, head Head, raw []byte, follow bool, hop int) *Result {
	switch {
	case head.Status == http.StatusOK:
		if len(raw) == 0 {
			return &Result{URL: url, Head: &head}
		}
		v, err := ParseValue(raw)
		if err != nil {
			e.log.DebugObj("gink response is not JSON", "gink_decode", map[string]any{
				"url":   url,
				"error": err.Error(),
			})
			return &Result{URL: url, Head: &head, Body: raw, Err: ErrMalformedResponse}
		}
		return &Result{URL: url, Value: Rewrite(v, IsURLField, url)}

	case isRedirect(head.Status) && follow:
		location, ok := head.Get("location")
		if !ok || location == "" {
			return &Result{URL: url, Head: &head, Err: ErrMissingRedirectLocation}
		}
		if hop >= e.maxRedirects {
			return &Result{URL: url, Head: &head, Body: raw, Err: ErrTooManyRedirects}
		}
		next := Resolve(location, url)
		e.log.DebugObj("gink following redirect", "gink_redirect", map[string]any{
			"from":   url,
			"to":     next,
			"status": head.Status,
			"hop":    hop + 1,
		})
		return e.execute(ctx, next, http.MethodGet, nil, true, hop+1)

	case isRedirect(head.Status):
		return &Result{URL: url, Head: &head, Body: raw}
	}

	return &Result{URL: url, Head: &head, Body: raw, Err: &StatusError{Code: head.Status}}
}

func (e *Executor) transportFailure(url, method string, err error) *Result {
	e.log.WarnObj("gink transport failed", "gink_transport_error", map[string]any{
		"method": method,
		"url":    url,
		"error":  err.Error(),
	})
	return &Result{URL: url, Err: &TransportError{URL: url, Err: err}}
}

func isRedirect(status int) bool { return status >= 300 && status <= 399 }

// buildRequest encodes body as JSON. A PUT with a body asks for a
// 100-continue handshake, whose interim head the parser skips.
func buildRequest(url, method string, body any) (httpclient.Request, error) {
	req := httpclient.Request{Method: method, URL: url}
	if body == nil {
		return req, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return req, fmt.Errorf("encode request body: %w", err)
	}
	req.Body = raw
	req.Header = map[string]string{
		"Content-Type":   "application/json",
		"Content-Length": strconv.Itoa(len(raw)),
	}
	if method == http.MethodPut {
		req.Header["Expect"] = "100-continue"
	}
	return req, nil
}
