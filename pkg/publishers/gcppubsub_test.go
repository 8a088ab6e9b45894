package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// in-memory Pub/Sub emulator
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "live-updates"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:        "pubsub",
		Type:      TypeGCPPubSub,
		GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "test-project", Topic: "live-updates"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}

	if err := pub.Publish(ctx, testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.(*pubsubPublisher).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["imei"]; got != "359710040000001" {
		t.Fatalf("imei attribute = %q", got)
	}
	var evt Event
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil || evt.Update.PosTS != 1700000000 {
		t.Fatalf("unexpected payload %s (err=%v)", msgs[0].Data, err)
	}
}
