package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	cookiejar "github.com/juju/persistent-cookiejar"
)

// Scratch files kept in the working directory. They are overwritten by every
// request, so one directory must not be shared by concurrent clients.
const (
	HeadsFile   = "gink-heads"
	BodyFile    = "gink-body"
	CookiesFile = "gink-cookies"
)

// Options configures a RestyTransport.
type Options struct {
	WorkDir  string
	Username string
	Password string
	Timeout  time.Duration
	Logger   Logger
}

// RestyTransport is the Transport used against the live service. It speaks
// HTTP Digest when credentials are set, keeps cookies in a file of the working
// directory across calls and processes, never follows redirects itself and
// spools every response to the scratch files before handing it back.
type RestyTransport struct {
	client *resty.Client
	jar    *cookiejar.Jar
	dir    string
	log    Logger
}

// NewRestyTransport opens the cookie jar in opts.WorkDir and configures the
// underlying resty client.
func NewRestyTransport(opts Options) (*RestyTransport, error) {
	dir := strings.TrimSpace(opts.WorkDir)
	if dir == "" {
		return nil, errors.New("transport requires a working directory")
	}

	jar, err := cookiejar.New(&cookiejar.Options{Filename: filepath.Join(dir, CookiesFile)})
	if err != nil {
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}

	c := newRestyBaseClient(opts.Timeout)
	c.SetCookieJar(jar)
	// redirects are followed by the caller, as GET, not by net/http
	c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	if opts.Username != "" && opts.Password != "" {
		c.SetDigestAuth(opts.Username, opts.Password)
	}

	return &RestyTransport{
		client: c,
		jar:    jar,
		dir:    dir,
		log:    ensureLogger(opts.Logger),
	}, nil
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Send performs the request and returns the spooled head and body streams.
func (t *RestyTransport) Send(ctx context.Context, r Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := t.openScratch()
	if err != nil {
		return nil, err
	}

	trace := &httptrace.ClientTrace{
		Got1xxResponse: func(code int, header textproto.MIMEHeader) error {
			line := fmt.Sprintf("HTTP/1.1 %d %s", code, http.StatusText(code))
			return writeHead(out.heads, line, http.Header(header))
		},
	}

	req := t.client.R().
		SetContext(httptrace.WithClientTrace(ctx, trace)).
		SetDoNotParseResponse(true)
	if len(r.Header) > 0 {
		req.SetHeaders(r.Header)
	}
	if r.Body != nil {
		req.SetBody(r.Body)
	}

	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}

	resp, err := req.Execute(method, r.URL)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("%s %s: %w", method, r.URL, err)
	}
	if err := t.spool(out, resp); err != nil {
		out.Close()
		return nil, err
	}

	t.saveCookies()
	if err := out.rewind(); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

// Close persists the cookie jar.
func (t *RestyTransport) Close() error {
	if t == nil || t.jar == nil {
		return nil
	}
	if err := t.jar.Save(); err != nil {
		return fmt.Errorf("save cookie jar: %w", err)
	}
	return nil
}

func (t *RestyTransport) openScratch() (*fileResponse, error) {
	heads, err := os.Create(filepath.Join(t.dir, HeadsFile))
	if err != nil {
		return nil, fmt.Errorf("create heads file: %w", err)
	}
	body, err := os.Create(filepath.Join(t.dir, BodyFile))
	if err != nil {
		heads.Close()
		return nil, fmt.Errorf("create body file: %w", err)
	}
	return &fileResponse{heads: heads, body: body}, nil
}

func (t *RestyTransport) spool(out *fileResponse, resp *resty.Response) error {
	raw := resp.RawResponse
	if raw == nil {
		return errors.New("no response received")
	}

	line := raw.Proto + " " + raw.Status
	if err := writeHead(out.heads, line, raw.Header); err != nil {
		return fmt.Errorf("write heads file: %w", err)
	}

	body := resp.RawBody()
	if body == nil {
		return nil
	}
	defer body.Close()
	if _, err := io.Copy(out.body, body); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	return nil
}

func (t *RestyTransport) saveCookies() {
	if err := t.jar.Save(); err != nil {
		t.log.WarnObj("cookie jar save failed", "cookie_error", map[string]any{
			"path":  filepath.Join(t.dir, CookiesFile),
			"error": err.Error(),
		})
	}
}

// writeHead writes one head block in wire format. Header names are sorted so
// the scratch file is stable across runs.
func writeHead(w io.Writer, statusLine string, header http.Header) error {
	var b strings.Builder
	b.WriteString(statusLine)
	b.WriteString("\r\n")

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range header[name] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\r\n")
		}
	}
	b.WriteString("\r\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// fileResponse serves the scratch files of the last request.
type fileResponse struct {
	heads *os.File
	body  *os.File
}

func (f *fileResponse) Heads() io.Reader { return f.heads }
func (f *fileResponse) Body() io.Reader  { return f.body }

func (f *fileResponse) Close() error {
	return errors.Join(f.heads.Close(), f.body.Close())
}

func (f *fileResponse) rewind() error {
	if _, err := f.heads.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind heads file: %w", err)
	}
	if _, err := f.body.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind body file: %w", err)
	}
	return nil
}
