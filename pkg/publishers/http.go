package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/gink-client/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// httpUpdateKeyHeader carries the dedupe key of the update so receivers can
// drop replays.
const httpUpdateKeyHeader = "X-Gink-Update-Key"

// httpPublisher posts events as JSON to a webhook.
type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}

	return &httpPublisher{
		id:      cfg.ID,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().
		SetContext(ctx).
		SetBody(evt)
	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}
	req.SetHeader("Content-Type", "application/json")
	req.SetHeader(httpUpdateKeyHeader, evt.Update.Key())

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		h.log.WarnObj("http publisher rejected event", "publisher_http_error", map[string]any{
			"publisher_id": h.id,
			"status":       resp.StatusCode(),
			"update_key":   evt.Update.Key(),
		})
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
