package stream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

const TopicEvents = "talkoot-events"

const EventNew = "NEW"
const EventUpdate = "UPDATE"
const EventApprove = "APPROVE"
const EventDelete = "DELETE"

type EventEnvelope struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Product   string    `json:"product"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func (envelope EventEnvelope) Marshal() ([]byte, error) {
	return json.Marshal(envelope)
}

// NewClient creates a producer client for a comma separated broker list.
func NewClient(brokers string) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(TopicEvents),
		kgo.AllowAutoTopicCreation(),
	}

	return kgo.NewClient(opts...)
}

// Producer is the part of *kgo.Client used to publish records.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher writes lifecycle records of a product to a topic, keyed by the
// record key so every change of one entity lands on the same partition.
type Publisher struct {
	client  Producer
	topic   string
	product string
	now     func() time.Time
}

func NewPublisher(client Producer, topic string, product string) *Publisher {
	return &Publisher{
		client:  client,
		topic:   topic,
		product: product,
		now:     time.Now,
	}
}

func (publisher *Publisher) Record(ctx context.Context, eventType string, key string, data any) error {
	envelope := EventEnvelope{
		ID:        uuid.NewString(),
		EventType: eventType,
		Product:   publisher.product,
		Key:       key,
		Timestamp: publisher.now().UTC(),
		Data:      data,
	}
	b, err := envelope.Marshal()
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: publisher.topic,
		Key:   []byte(key),
		Value: b,
	}

	return publisher.client.ProduceSync(ctx, record).FirstErr()
}
