package intake

import (
	"context"
	"time"

	"github.com/harava/talkoot/internal/health"
	"github.com/harava/talkoot/internal/streaming"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Server consumes event proposals and publishes the replies.
type Server struct {
	channel *amqp.Channel
	handler *Handler
	health  *health.Health
}

func NewServer(channel *amqp.Channel, handler *Handler, health *health.Health) *Server {
	return &Server{
		channel: channel,
		handler: handler,
		health:  health,
	}
}

// Run consumes until the context is done or the channel closes.
func (server *Server) Run(ctx context.Context) error {
	if _, err := streaming.DeclareProposalQueue(server.channel); err != nil {
		return err
	}

	messages, err := server.channel.Consume(
		streaming.QueueProposals, // queue
		"",                       // consumer
		false,                    // auto-ack
		false,                    // exclusive
		false,                    // no-local
		false,                    // no-wait
		nil,                      // args
	)
	if err != nil {
		return err
	}

	log.Info().Str("queue", streaming.QueueProposals).Msg("consuming proposals")

	for {
		select {
		case <-ctx.Done():
			log.Warn().Msg("shutting down proposal consumer")
			return nil
		case message, ok := <-messages:
			if !ok {
				log.Warn().Msg("proposal channel closed")
				return nil
			}

			go server.handle(ctx, message)
		}
	}
}

func (server *Server) handle(ctx context.Context, message amqp.Delivery) {
	if server.health != nil {
		server.health.ProposalsReceived.Inc()
	}

	reply := server.handler.Handle(ctx, message.Body)

	if message.ReplyTo != "" {
		if err := server.reply(ctx, message, reply); err != nil {
			log.Error().Err(err).Str("reply_to", message.ReplyTo).Msg("failed to publish reply")
		}
	}

	if err := message.Ack(false); err != nil {
		log.Error().Err(err).Msg("failed to ack proposal")
	}
}

func (server *Server) reply(ctx context.Context, message amqp.Delivery, reply *Reply) error {
	body, err := reply.Marshal()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return server.channel.PublishWithContext(ctx,
		"",              // exchange
		message.ReplyTo, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: message.CorrelationId,
			Timestamp:     time.Now(),
			AppId:         "talkoot",
			Body:          body,
		})
}
