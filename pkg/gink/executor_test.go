package gink

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/gink-client/pkg/httpclient"
)

// mockTransport is a mocked httpclient.Transport.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(httpclient.Response)
	return resp, args.Error(1)
}

// expect registers a response for requests with the given method and URL.
func (m *mockTransport) expect(method, url string) *mock.Call {
	return m.On("Send", mock.Anything, mock.MatchedBy(func(r httpclient.Request) bool {
		return r.Method == method && r.URL == url
	}))
}

func jsonOK(body string) httpclient.Response {
	return httpclient.NewMemoryResponse("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n", body)
}

func TestExecuteSuccessRewritesReferences(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/v2/gateway?_format=json").
		Return(jsonOK(`{"live_url":"/v2/live/9","refresh":5}`), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/v2/gateway?_format=json", "", nil, true)

	require.True(t, res.OK(), res.Indicator())
	assert.Nil(t, res.Head)
	assert.False(t, res.HasBody())
	assert.Equal(t, `{"live_url":"http://h/v2/live/9","refresh":5}`, res.Value.String())
	assert.False(t, res.Object().Has(ErrorField))
	assert.Equal(t, 200, res.Status())
	transport.AssertExpectations(t)
}

func TestExecuteIsRepeatable(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/a/list").
		Return(jsonOK(`{"items":[{"self_url":"item/1"},{"self_url":"item/2"}]}`), nil).Twice()

	exec := NewExecutor(transport, nil, 0)
	first := exec.Execute(context.Background(), "http://h/a/list", http.MethodGet, nil, true)
	second := exec.Execute(context.Background(), "http://h/a/list", http.MethodGet, nil, true)

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, first.Value.String(), second.Value.String())
	assert.Equal(t, "http://h/a/item/2", second.Value.Get("items").Index(1).Get("self_url").Text())
	transport.AssertExpectations(t)
}

func TestExecuteFollowsRedirectAsGet(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodPost, "http://h/v2/token").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 302 Found\r\nLocation: /v2/token2\r\n\r\n", ""), nil).Once()
	transport.On("Send", mock.Anything, mock.MatchedBy(func(r httpclient.Request) bool {
		return r.Method == http.MethodGet && r.URL == "http://h/v2/token2" && r.Body == nil
	})).Return(jsonOK(`{"token":"t0k","trackers_url":"trackers?_format=json"}`), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/v2/token", http.MethodPost, map[string]string{"key": "k"}, true)

	require.True(t, res.OK(), res.Indicator())
	assert.Equal(t, "http://h/v2/token2", res.URL)
	assert.Equal(t, "t0k", res.Get("token").Text())
	assert.Equal(t, "http://h/v2/trackers?_format=json", res.Get("trackers_url").Text())
	transport.AssertExpectations(t)
}

func TestExecuteRedirectWithoutFollow(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodPut, "http://h/v2/thing").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 303 See Other\r\nLocation: /v2/thing/1\r\n\r\n", "moved"), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/v2/thing", http.MethodPut, map[string]int{"a": 1}, false)

	require.True(t, res.OK())
	require.NotNil(t, res.Head)
	assert.Equal(t, 303, res.Head.Status)
	assert.Equal(t, "moved", string(res.Body))
	assert.Equal(t, "/v2/thing/1", res.Head.Header["location"])
	transport.AssertExpectations(t)
}

func TestExecuteRedirectMissingLocation(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/a").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 302 Found\r\n\r\n", "<p>moved</p>"), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/a", http.MethodGet, nil, true)

	assert.ErrorIs(t, res.Err, ErrMissingRedirectLocation)
	assert.False(t, res.HasBody())
	assert.Equal(t, "missing redirect location", res.Indicator())
	assert.Equal(t, 302, res.Status())
}

func TestExecuteStopsRedirectLoops(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/loop").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 302 Found\r\nLocation: loop\r\n\r\n", ""), nil).Times(4)

	res := NewExecutor(transport, nil, 3).Execute(context.Background(), "http://h/loop", http.MethodGet, nil, true)

	assert.ErrorIs(t, res.Err, ErrTooManyRedirects)
	transport.AssertExpectations(t)
}

func TestExecuteErrorStatus(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/missing").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 404 Not Found\r\nContent-Type: text/plain\r\n\r\n", "not found"), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/missing", http.MethodGet, nil, true)

	var statusErr *StatusError
	require.ErrorAs(t, res.Err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.Equal(t, "HTTP error status: 404", res.Indicator())
	assert.Equal(t, "not found", string(res.Body))

	obj := res.Object()
	assert.Equal(t, "HTTP error status: 404", obj.Get(ErrorField).Text())
	assert.Equal(t, "not found", obj.Get("body").Text())
	assert.Equal(t, "text/plain", obj.Get("headers").Get("content-type").Text())
}

func TestExecuteOnlyExactly200IsSuccess(t *testing.T) {
	for _, status := range []string{"201 Created", "204 No Content"} {
		transport := new(mockTransport)
		transport.expect(http.MethodPost, "http://h/new").
			Return(httpclient.NewMemoryResponse("HTTP/1.1 "+status+"\r\n\r\n", `{"id":1}`), nil).Once()

		res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/new", http.MethodPost, struct{}{}, true)

		var statusErr *StatusError
		assert.ErrorAs(t, res.Err, &statusErr, status)
		assert.Nil(t, res.Value)
	}
}

func TestExecuteEmptySuccess(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodDelete, "http://h/a/1").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 200 OK\r\n\r\n", ""), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/a/1", http.MethodDelete, nil, true)

	require.True(t, res.OK())
	require.NotNil(t, res.Head)
	assert.Equal(t, 200, res.Head.Status)
	assert.False(t, res.HasBody())
	assert.Nil(t, res.Value)
	assert.ErrorIs(t, res.Decode(&struct{}{}), ErrNoContent)
	assert.True(t, res.Object().Get("body").IsNull())
}

func TestExecuteMalformedJSON(t *testing.T) {
	transport := new(mockTransport)
	transport.expect(http.MethodGet, "http://h/html").
		Return(httpclient.NewMemoryResponse("HTTP/1.1 200 OK\r\n\r\n", "<html>oops</html>"), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/html", http.MethodGet, nil, true)

	assert.ErrorIs(t, res.Err, ErrMalformedResponse)
	assert.Equal(t, "expected JSON, none returned", res.Indicator())
	assert.Equal(t, "<html>oops</html>", string(res.Body))
	assert.Equal(t, 200, res.Head.Status)
}

func TestExecuteTransportFailure(t *testing.T) {
	transport := new(mockTransport)
	cause := errors.New("connection refused")
	transport.expect(http.MethodGet, "http://h/down").Return(nil, cause).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/down", http.MethodGet, nil, true)

	var transportErr *TransportError
	require.ErrorAs(t, res.Err, &transportErr)
	assert.ErrorIs(t, res.Err, cause)
	assert.Equal(t, "transport error", res.Indicator())
	assert.Nil(t, res.Head)
	assert.Equal(t, "transport error", res.Object().Get(ErrorField).Text())
}

func TestExecuteUnencodableBodyIsTransportFailure(t *testing.T) {
	transport := new(mockTransport)

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/x", http.MethodPost, map[string]any{"ch": make(chan int)}, true)

	var transportErr *TransportError
	assert.ErrorAs(t, res.Err, &transportErr)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestExecutePutWithContinueHead(t *testing.T) {
	transport := new(mockTransport)
	heads := "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"
	transport.On("Send", mock.Anything, mock.MatchedBy(func(r httpclient.Request) bool {
		return r.Method == http.MethodPut &&
			string(r.Body) == `{"name":"truck"}` &&
			r.Header["Content-Type"] == "application/json" &&
			r.Header["Content-Length"] == "16" &&
			r.Header["Expect"] == "100-continue"
	})).Return(httpclient.NewMemoryResponse(heads, `{"self_url":"1"}`), nil).Once()

	res := NewExecutor(transport, nil, 0).Execute(context.Background(), "http://h/trackers/1", http.MethodPut, map[string]string{"name": "truck"}, false)

	require.True(t, res.OK(), res.Indicator())
	assert.Equal(t, "http://h/trackers/1", res.Get("self_url").Text())
	transport.AssertExpectations(t)
}
