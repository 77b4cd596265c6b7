package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type memoryProducer struct {
	records []*kgo.Record
	err     error
}

func (producer *memoryProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := kgo.ProduceResults{}
	for _, r := range rs {
		producer.records = append(producer.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: producer.err})
	}
	return results
}

func TestPublisherRecord(t *testing.T) {
	producer := &memoryProducer{}
	publisher := NewPublisher(producer, TopicEvents, "event")
	publisher.now = func() time.Time { return time.Date(2018, time.November, 1, 12, 0, 0, 0, time.UTC) }

	err := publisher.Record(context.Background(), EventNew, "42", map[string]any{"name": "Park cleanup"})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	record := producer.records[0]
	assert.Equal(t, TopicEvents, record.Topic)
	assert.Equal(t, "42", string(record.Key))

	envelope := map[string]any{}
	require.NoError(t, json.Unmarshal(record.Value, &envelope))
	assert.Equal(t, "NEW", envelope["event_type"])
	assert.Equal(t, "event", envelope["product"])
	assert.Equal(t, "42", envelope["key"])
	assert.Equal(t, "2018-11-01T12:00:00Z", envelope["timestamp"])
	assert.NotEmpty(t, envelope["id"])
}

func TestPublisherRecordError(t *testing.T) {
	producer := &memoryProducer{err: errors.New("broker down")}
	publisher := NewPublisher(producer, TopicEvents, "event")

	err := publisher.Record(context.Background(), EventDelete, "42", nil)
	assert.EqualError(t, err, "broker down")
}
