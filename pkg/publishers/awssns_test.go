package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      logger.NopLogger{},
	}

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["make"]
	if !ok || aws.ToString(attr.StringValue) != "FORD" {
		t.Fatalf("make attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"vin":"1FTFW1CT5DFC10312"`) {
		t.Fatalf("Message missing vin: %s", msg)
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	pub := &snsPublisher{
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      logger.NopLogger{},
	}

	if err := pub.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestAWSBuildersUseStaticCredentials(t *testing.T) {
	pub, err := newSNSPublisher(context.Background(), PublisherConfig{
		ID:   "topic",
		Type: TypeSNS,
		SNS: &SNSPublisherConfig{
			TopicARN: "arn:aws:sns:us-east-1:000000000000:vehicles",
			Region:   "us-east-1",
			Endpoint: "http://localhost:4566",
			AWSCredentials: AWSCredentials{
				AccessKeyID:     "test",
				SecretAccessKey: "test",
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSNSPublisher: %v", err)
	}
	if pub.Type() != TypeSNS || pub.ID() != "topic" {
		t.Fatalf("unexpected publisher %s/%s", pub.Type(), pub.ID())
	}

	if _, err := newSQSPublisher(context.Background(), PublisherConfig{ID: "q", Type: TypeSQS}, nil); err == nil {
		t.Fatalf("expected error for missing sqs block")
	}
}
