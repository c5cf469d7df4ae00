package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	TopicClaims    = "coverdesk.claims"
	TopicContracts = "coverdesk.contracts"
)

// KafkaPublisher publishes lifecycle events to Kafka.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafka connects to the brokers and makes sure our topics exist.
func NewKafka(ctx context.Context, brokers []string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka connect: %w", err)
	}
	if err := ensureTopics(ctx, client, TopicClaims, TopicContracts); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client}, nil
}

func ensureTopics(ctx context.Context, client *kgo.Client, topics ...string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publish sends one event, keyed by aggregate id, and waits for the broker
// ack so the caller can log delivery failures.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	record := &kgo.Record{
		Topic: TopicFor(e.Type),
		Key:   []byte(e.AggregateID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// TopicFor routes an event type to its topic.
func TopicFor(t Type) string {
	if strings.HasPrefix(string(t), "claim.") {
		return TopicClaims
	}
	return TopicContracts
}
