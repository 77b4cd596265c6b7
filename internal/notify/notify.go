package notify

import (
	"context"

	"github.com/harava/talkoot/internal/health"
	"github.com/rs/zerolog/log"
)

// Notification templates.
const (
	TemplateEventCreated              = "event_created"
	TemplateEventApprovedToOrganizer  = "event_approved_to_organizer"
	TemplateEventApprovedToContractor = "event_approved_to_contractor"
	TemplateEventApprovedToOfficial   = "event_approved_to_official"
	TemplateEventReminder             = "event_reminder"
)

// Sender hands a notification for one recipient to the delivery service.
type Sender interface {
	Notify(ctx context.Context, recipient string, template string, data map[string]any) error
}

// Dispatcher sends notifications to several recipients. Delivery failures are
// logged and never returned, a failed notification must not fail the write
// that triggered it.
type Dispatcher struct {
	sender Sender
	health *health.Health
}

func NewDispatcher(sender Sender, health *health.Health) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		health: health,
	}
}

// Send notifies each distinct non-empty recipient and returns how many
// notifications the sender accepted.
func (dispatcher *Dispatcher) Send(ctx context.Context, recipients []string, template string, data map[string]any) int {
	if dispatcher == nil || dispatcher.sender == nil {
		return 0
	}

	sent := 0
	seen := map[string]struct{}{}
	for _, recipient := range recipients {
		if recipient == "" {
			continue
		}
		if _, ok := seen[recipient]; ok {
			continue
		}
		seen[recipient] = struct{}{}

		err := dispatcher.sender.Notify(ctx, recipient, template, data)
		if err != nil {
			log.Error().Err(err).Str("template", template).Str("recipient", recipient).Msg("failed to send notification")
			if dispatcher.health != nil {
				dispatcher.health.NotificationsFailed.Inc()
			}
			continue
		}

		sent++
		if dispatcher.health != nil {
			dispatcher.health.NotificationsSent.Inc()
		}
	}

	return sent
}

// LogSender only logs notifications. Used when no broker is configured.
type LogSender struct{}

func (LogSender) Notify(ctx context.Context, recipient string, template string, data map[string]any) error {
	log.Info().Str("template", template).Str("recipient", recipient).Interface("context", data).Msg("notification")
	return nil
}
