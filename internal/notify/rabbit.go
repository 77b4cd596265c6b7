package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/streaming"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the notification handed to the mail delivery service.
type Message struct {
	ID        uuid.UUID      `json:"id"`
	Recipient string         `json:"recipient"`
	Template  string         `json:"template"`
	Context   map[string]any `json:"context"`
	CreatedAt time.Time      `json:"created_at"`
}

func (m *Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *Message) Unmarshal(data []byte) error {
	return json.Unmarshal(data, m)
}

// Publisher is the part of *amqp.Channel used to send notifications.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitSender publishes notifications to the notification queue.
type RabbitSender struct {
	channel Publisher
	now     func() time.Time
}

// NewRabbitSender declares the notification queue and returns a sender on it.
func NewRabbitSender(ch *amqp.Channel) (*RabbitSender, error) {
	if _, err := streaming.DeclareNotificationQueue(ch); err != nil {
		return nil, err
	}
	return &RabbitSender{channel: ch, now: time.Now}, nil
}

func (sender *RabbitSender) Notify(ctx context.Context, recipient string, template string, data map[string]any) error {
	message := &Message{
		ID:        uuid.New(),
		Recipient: recipient,
		Template:  template,
		Context:   data,
		CreatedAt: sender.now().UTC(),
	}
	body, err := message.Marshal()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sender.channel.PublishWithContext(ctx,
		"",                           // exchange
		streaming.QueueNotifications, // routing key
		false,                        // mandatory
		false,                        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.ID.String(),
			Timestamp:    message.CreatedAt,
			AppId:        "talkoot",
			Body:         body,
		})
}
