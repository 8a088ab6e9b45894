package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPPublisherSuccess(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %s", got)
		}
		if got := r.Header.Get(httpUpdateKeyHeader); got != testEvent().Update.Key() {
			t.Errorf("unexpected update key header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            srv.URL,
			Method:         http.MethodPut,
			Headers:        map[string]string{"X-Test": "1"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if received.Update.IMEI != "359710040000001" {
		t.Fatalf("server did not receive the event, got %+v", received)
	}
}

func TestHTTPPublisherErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
