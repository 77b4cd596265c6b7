package events

import (
	"context"
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/calendar"
	"github.com/harava/talkoot/internal/health"
	"github.com/harava/talkoot/internal/zones"
	zlog "github.com/rs/zerolog/log"
)

// ReminderStore finds approved events whose contacts have not been reminded.
type ReminderStore interface {
	Unreminded(ctx context.Context) ([]*Event, error)
	MarkReminded(ctx context.Context, id int, at time.Time) error
}

type ZoneGetter interface {
	Get(ctx context.Context, id int) (*zones.Zone, error)
}

// Reminder sends the reminders of upcoming approved events.
type Reminder struct {
	store    ReminderStore
	zones    ZoneGetter
	notifier *Notifier
	policy   Policy
	health   *health.Health
	now      func() time.Time
}

func NewReminder(store ReminderStore, zones ZoneGetter, notifier *Notifier, policy Policy, health *health.Health, now func() time.Time) *Reminder {
	if now == nil {
		now = time.Now
	}
	return &Reminder{
		store:    store,
		zones:    zones,
		notifier: notifier,
		policy:   policy,
		health:   health,
		now:      now,
	}
}

// Run reminds every due event once and returns how many were reminded.
// Failures of single events are logged and the run continues.
func (reminder *Reminder) Run(ctx context.Context) (int, error) {
	pending, err := reminder.store.Unreminded(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unreminded events: %w", err)
	}

	now := reminder.now()
	today := calendar.Day(now, reminder.policy.Location)

	sent := 0
	for _, event := range pending {
		if !event.Approved() || event.ReminderSentAt != nil {
			continue
		}
		if today.Before(event.ReminderDay(reminder.policy)) {
			continue
		}

		log := zlog.With().Int("event", event.ID).Int("zone", event.ZoneID).Logger()

		zone, err := reminder.zones.Get(ctx, event.ZoneID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load contract zone")
			continue
		}
		if zone == nil {
			log.Error().Msg("contract zone not found")
			continue
		}

		if !reminder.notifier.Reminder(ctx, zone, event) {
			log.Warn().Str("zone_name", zone.Name).Msg("contract zone has no contacts, event not reminded")
			continue
		}

		if err := reminder.store.MarkReminded(ctx, event.ID, now); err != nil {
			log.Error().Err(err).Msg("failed to mark event reminded")
			continue
		}
		event.ReminderSentAt = &now

		sent++
		if reminder.health != nil {
			reminder.health.RemindersSent.Inc()
		}
		log.Info().Msg("event reminded")
	}

	return sent, nil
}
