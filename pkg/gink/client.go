package gink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adda-Baaj/gink-client/pkg/httpclient"
)

const (
	// DefaultBaseURL is the production GINK v2 endpoint.
	DefaultBaseURL = "http://mygink.com/rest/v2/"

	gatewayPath = "gateway?_format=json"
	tokenPath   = "token?_format=json"
)

// Config describes the endpoint a Client talks to.
type Config struct {
	// BaseURL is the absolute URL the gateway and token resources are
	// resolved against. Defaults to DefaultBaseURL.
	BaseURL string
	// Username and Password enable HTTP Digest authentication when both are set.
	Username string
	Password string
	// WorkDir holds the cookie jar and the response scratch files. Defaults
	// to the process working directory and must be writable.
	WorkDir      string
	Timeout      time.Duration
	MaxRedirects int
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	transport httpclient.Transport
	log       Logger
}

// WithTransport replaces the resty transport, typically with a fake.
func WithTransport(t httpclient.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLogger sets the logger used by the client and its default transport.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// Client is the GINK web service client. It is meant for sequential use: the
// scratch files in its working directory are shared by every call.
type Client struct {
	base   string
	dir    string
	exec   *Executor
	closer io.Closer
}

// New validates cfg and builds a Client. Configuration problems are reported
// as *ConfigurationError.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if err := validateBaseURL(base); err != nil {
		return nil, &ConfigurationError{Field: "base_url", Err: err}
	}

	dir, err := resolveWorkDir(cfg.WorkDir)
	if err != nil {
		return nil, &ConfigurationError{Field: "work_dir", Err: err}
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	log := ensureLogger(o.log)

	c := &Client{base: base, dir: dir}
	if o.transport == nil {
		t, err := httpclient.NewRestyTransport(httpclient.Options{
			WorkDir:  dir,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
			Logger:   log,
		})
		if err != nil {
			return nil, &ConfigurationError{Field: "work_dir", Err: err}
		}
		o.transport = t
		c.closer = t
	}
	c.exec = NewExecutor(o.transport, log, cfg.MaxRedirects)
	return c, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func resolveWorkDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".gink-probe-*")
	if err != nil {
		return "", fmt.Errorf("%s not writeable: %w", dir, err)
	}
	name := probe.Name()
	return dir, errors.Join(probe.Close(), os.Remove(name))
}

// BaseURL returns the endpoint base URL.
func (c *Client) BaseURL() string { return c.base }

// WorkDir returns the absolute working directory.
func (c *Client) WorkDir() string { return c.dir }

// Close releases the default transport, persisting its cookies.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Gateway fetches the gateway object of the service.
func (c *Client) Gateway(ctx context.Context) *Result {
	return c.Get(ctx, Resolve(gatewayPath, c.base))
}

// TokenOption customizes a token request.
type TokenOption func(*tokenRequest)

type tokenRequest struct {
	password *string
	duration *int
}

// WithPassword authenticates with username and password instead of a
// pre-shared key.
func WithPassword(password string) TokenOption {
	return func(t *tokenRequest) { t.password = &password }
}

// WithDuration asks for a token valid for the given number of seconds.
func WithDuration(seconds int) TokenOption {
	return func(t *tokenRequest) { t.duration = &seconds }
}

// Token obtains a token for programmatic access. identity is a pre-shared key
// unless WithPassword is given, in which case it is the username. The service
// answers with a redirect to the token-authenticated gateway, which is followed.
func (c *Client) Token(ctx context.Context, identity string, opts ...TokenOption) *Result {
	var t tokenRequest
	for _, opt := range opts {
		if opt != nil {
			opt(&t)
		}
	}

	creds := Object()
	if t.password == nil {
		creds.Set("key", String(identity))
	} else {
		creds.Set("username", String(identity))
		creds.Set("password", String(*t.password))
	}
	if t.duration != nil {
		creds.Set("duration", Int(int64(*t.duration)))
	}

	return c.Post(ctx, Resolve(tokenPath, c.base), creds, Follow(true))
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	follow *bool
	body   any
}

// Follow overrides the method's default redirect handling.
func Follow(follow bool) RequestOption {
	return func(r *requestOptions) { r.follow = &follow }
}

// WithBody attaches a JSON body to a request that has no body parameter.
func WithBody(body any) RequestOption {
	return func(r *requestOptions) { r.body = body }
}

func collect(opts []RequestOption, defaultFollow bool) requestOptions {
	r := requestOptions{follow: &defaultFollow}
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}
	return r
}

// Get fetches a service object, resolving its URL references.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) *Result {
	r := collect(opts, true)
	return c.exec.Execute(ctx, url, http.MethodGet, r.body, *r.follow)
}

// Post sends body to url. Redirects are followed unless Follow(false) is given.
func (c *Client) Post(ctx context.Context, url string, body any, opts ...RequestOption) *Result {
	r := collect(opts, true)
	return c.exec.Execute(ctx, url, http.MethodPost, body, *r.follow)
}

// Put sends body to url. Redirects are not followed unless Follow(true) is
// given, since the interim 100 Continue head of a PUT is not a redirect.
func (c *Client) Put(ctx context.Context, url string, body any, opts ...RequestOption) *Result {
	r := collect(opts, false)
	return c.exec.Execute(ctx, url, http.MethodPut, body, *r.follow)
}

// Delete removes the resource at url.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) *Result {
	r := collect(opts, true)
	return c.exec.Execute(ctx, url, http.MethodDelete, r.body, *r.follow)
}
