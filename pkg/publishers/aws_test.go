package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Adda-Baaj/gink-client/internal/domain"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func testEvent() Event {
	return NewEvent("http://h/rest/v2/live/9", domain.LiveUpdate{
		IMEI:   "359710040000001",
		Name:   "Van",
		CommTS: 1700000005,
		PosTS:  1700000000,
	})
}

func decodeEvent(t *testing.T, body string) Event {
	t.Helper()
	var evt Event
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		t.Fatalf("message is not an event: %v", err)
	}
	return evt
}

func TestSQSPublisherSendsEvent(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://example.com/queue", client: client, log: ensureLogger(nil)}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["imei"]
	if !ok || aws.ToString(attr.StringValue) != "359710040000001" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("imei attribute missing or wrong: %#v", attr)
	}
	evt := decodeEvent(t, aws.ToString(client.input.MessageBody))
	if evt.Update.Key() != "359710040000001:1700000000:1700000005" || evt.Source != "http://h/rest/v2/live/9" {
		t.Fatalf("unexpected message body: %+v", evt)
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	pub := &sqsPublisher{id: "queue", queueURL: "q", client: &fakeSQSClient{err: errors.New("boom")}, log: ensureLogger(nil)}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSNSPublisherSendsEvent(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "topic", topicARN: "arn:aws:sns:::topic", client: client, log: ensureLogger(nil)}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source"]
	if !ok || aws.ToString(attr.StringValue) != "http://h/rest/v2/live/9" {
		t.Fatalf("source attribute missing or wrong: %#v", attr)
	}
	if evt := decodeEvent(t, aws.ToString(client.input.Message)); evt.Update.Name != "Van" {
		t.Fatalf("unexpected message: %+v", evt)
	}
}

func TestSNSPublisherSendError(t *testing.T) {
	pub := &snsPublisher{id: "topic", topicARN: "arn", client: &fakeSNSClient{err: errors.New("boom")}, log: ensureLogger(nil)}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewAWSPublishersWithStaticCredentials(t *testing.T) {
	creds := &AWSCredentialsConfig{AccessKeyID: "AKID", SecretAccessKey: "secret"}

	sqsPub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID:   "queue",
		Type: TypeSQS,
		SQS:  &SQSPublisherConfig{QueueURL: "http://localhost:4566/000000000000/q", Region: "eu-west-1", Endpoint: "http://localhost:4566", Credentials: creds},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if sqsPub.Type() != TypeSQS || sqsPub.ID() != "queue" {
		t.Fatalf("unexpected sqs publisher %s/%s", sqsPub.Type(), sqsPub.ID())
	}

	snsPub, err := newSNSPublisher(context.Background(), PublisherConfig{
		ID:   "topic",
		Type: TypeSNS,
		SNS:  &SNSPublisherConfig{TopicARN: "arn:aws:sns:eu-west-1:000000000000:t", Region: "eu-west-1", Credentials: creds},
	}, nil)
	if err != nil {
		t.Fatalf("newSNSPublisher: %v", err)
	}
	if snsPub.Type() != TypeSNS {
		t.Fatalf("unexpected sns publisher type %s", snsPub.Type())
	}

	if _, err := newSNSPublisher(context.Background(), PublisherConfig{ID: "x", Type: TypeSNS}, nil); err == nil {
		t.Fatalf("expected error without sns block")
	}
}
