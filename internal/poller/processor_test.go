package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Adda-Baaj/gink-client/pkg/gink"
	"github.com/Adda-Baaj/gink-client/pkg/publishers"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
	partial bool
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if string(evt.Update.IMEI) == f.errOnID {
		if f.partial {
			return 1, errors.New("one sink down")
		}
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen keys.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failKey string
	failErr error
}

func (f *fakeDeduper) SeenUpdate(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.failKey && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[key], nil
}

func (f *fakeDeduper) MarkUpdate(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[key] = true
	return nil
}

func mustParse(t *testing.T, doc string) *gink.Value {
	t.Helper()
	v, err := gink.ParseValue([]byte(doc))
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	return v
}

const liveDoc = `{
	"live_url": "http://h/rest/v2/live/10",
	"refresh": 15,
	"updates": [
		{"imei": "111", "name": "Old", "comm_ts": 2, "pos_ts": 1, "lat": 50.1},
		{"imei": "222", "name": "New", "comm_ts": 4, "pos_ts": 3, "lat": 51.2}
	]
}`

func TestProcessorPublishesFreshUpdatesOnly(t *testing.T) {
	deduper := &fakeDeduper{seen: map[string]bool{"111:1:2": true}}
	pub := &fakePublisher{}
	processor := NewProcessor(pub, nil, deduper)

	snap, stats, err := processor.Process(context.Background(), "http://h/rest/v2/live/9", mustParse(t, liveDoc))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if snap.LiveURL != "http://h/rest/v2/live/10" || snap.Refresh != 15 || len(snap.Updates) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if stats != (Stats{Updates: 2, Fresh: 1, Published: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Update.Name != "New" || evt.Source != "http://h/rest/v2/live/9" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !strings.Contains(string(evt.Update.Raw), `"lat":51.2`) {
		t.Fatalf("expected raw update to be attached, got %s", evt.Update.Raw)
	}
	if !deduper.seen["222:3:4"] {
		t.Fatalf("MarkUpdate not called for new update")
	}
}

func TestProcessorAggregatesPublishErrors(t *testing.T) {
	deduper := &fakeDeduper{}
	pub := &fakePublisher{errOnID: "111"}
	processor := NewProcessor(pub, nil, deduper)

	_, stats, err := processor.Process(context.Background(), "src", mustParse(t, liveDoc))
	if err == nil || !strings.Contains(err.Error(), "111:1:2") {
		t.Fatalf("expected error mentioning the failed update, got %v", err)
	}
	if stats.Published != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if deduper.seen["111:1:2"] {
		t.Fatalf("undelivered update must not be marked")
	}
}

func TestProcessorMarksPartialDeliveries(t *testing.T) {
	deduper := &fakeDeduper{}
	processor := NewProcessor(&fakePublisher{errOnID: "111", partial: true}, nil, deduper)

	_, _, err := processor.Process(context.Background(), "src", mustParse(t, liveDoc))
	if err == nil {
		t.Fatalf("expected partial failure to be reported")
	}
	if !deduper.seen["111:1:2"] {
		t.Fatalf("partially delivered update should be marked")
	}
}

func TestProcessorKeepsUpdatesOnLookupErrors(t *testing.T) {
	deduper := &fakeDeduper{
		seen:    map[string]bool{"222:3:4": true},
		failKey: "111:1:2",
		failErr: errors.New("lookup failed"),
	}
	pub := &fakePublisher{}
	processor := NewProcessor(pub, nil, deduper)

	if _, _, err := processor.Process(context.Background(), "src", mustParse(t, liveDoc)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Update.IMEI != "111" {
		t.Fatalf("expected the update with a failed lookup to be published, got %#v", pub.events)
	}
}

func TestProcessorWithoutPublisher(t *testing.T) {
	processor := NewProcessor(nil, nil, nil)

	snap, stats, err := processor.Process(context.Background(), "src", mustParse(t, `{"live_url":"x","refresh":5,"updates":[]}`))
	if err != nil || len(snap.Updates) != 0 || stats.Updates != 0 {
		t.Fatalf("unexpected result snap=%+v stats=%+v err=%v", snap, stats, err)
	}

	if _, _, err := processor.Process(context.Background(), "src", nil); !errors.Is(err, ErrMalformedLive) {
		t.Fatalf("expected error for missing live object")
	}
	if _, _, err := processor.Process(context.Background(), "src", mustParse(t, `{"updates":"nope"}`)); !errors.Is(err, ErrMalformedLive) {
		t.Fatalf("expected decode error")
	}
}

func TestProcessorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{}
	_, _, err := NewProcessor(pub, nil, nil).Process(ctx, "src", mustParse(t, liveDoc))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected nothing published after cancellation")
	}
}
