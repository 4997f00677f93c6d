// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/goccy/go-json"
)

// Signal is the envelope fanned out for every recorded feed or safety signal.
type Signal struct {
	ID         string                 `json:"signalId"`
	Kind       string                 `json:"kind"`
	UserID     string                 `json:"userId"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// SignalPublisher delivers signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, signal Signal) error
}

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

// NewSNSPublisher loads the default AWS credential chain for region.
func NewSNSPublisher(ctx context.Context, region, topicARN string) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSPublisherWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSPublisherWithClient(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// Publish sends the signal as JSON. kind and userId travel as message
// attributes so subscriptions can filter on them.
func (p *SNSPublisher) Publish(ctx context.Context, signal Signal) error {
	body, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(p.topicARN),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(signal.Kind),
			},
			"userId": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(signal.UserID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", signal.Kind, err)
	}
	return nil
}

// NoopPublisher drops every signal. Used when SNS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Signal) error { return nil }
