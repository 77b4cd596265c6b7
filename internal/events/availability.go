package events

import (
	"context"
	"sort"
	"time"

	"github.com/harava/talkoot/internal/calendar"
	"github.com/harava/talkoot/internal/zones"
)

// Policy holds the booking rules of contract zones.
type Policy struct {
	// Days after today during which no event may start.
	MinLeadDays int
	// Distinct events a vacation group tolerates before its dates become unavailable.
	MaxEventsPerDay int
	// Days before the start an approved event's contacts are reminded.
	ReminderDays int
	// Location used to turn event times into calendar dates.
	Location *time.Location
}

func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		loc = time.UTC
	}
	return Policy{
		MinLeadDays:     7,
		MaxEventsPerDay: 3,
		ReminderDays:    2,
		Location:        loc,
	}
}

// LastBlockedDay is the last date of the lead-time window starting today.
func (policy Policy) LastBlockedDay(today time.Time) time.Time {
	return calendar.Day(today, nil).AddDate(0, 0, policy.MinLeadDays)
}

// UnavailableDates returns, in ascending order, the dates on which no new
// event may take place given the existing events of a single zone.
//
// today is a calendar date. Every date from today to today+MinLeadDays is
// unavailable. Later dates are unavailable when the vacation group of the
// date already holds MaxEventsPerDay distinct events. The event with the
// exclude ID is left out, so an event being edited never blocks itself.
func UnavailableDates(existing []*Event, today time.Time, policy Policy, exclude *int) []time.Time {
	lastTooEarly := policy.LastBlockedDay(today)

	blocked := map[time.Time]struct{}{}
	for _, date := range calendar.DateRange(today, lastTooEarly) {
		blocked[date] = struct{}{}
	}

	if policy.MaxEventsPerDay > 0 {
		booked := map[time.Time]map[*Event]struct{}{}
		for _, event := range existing {
			if exclude != nil && event.ID == *exclude {
				continue
			}
			if !event.StartDate(policy.Location).After(lastTooEarly) {
				continue
			}

			for _, date := range event.Dates(policy.Location) {
				for _, affected := range calendar.AffectedDates(date) {
					if booked[affected] == nil {
						booked[affected] = map[*Event]struct{}{}
					}
					booked[affected][event] = struct{}{}
				}
			}
		}

		for date, events := range booked {
			if len(events) >= policy.MaxEventsPerDay {
				blocked[date] = struct{}{}
			}
		}
	}

	dates := make([]time.Time, 0, len(blocked))
	for date := range blocked {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	return dates
}

// FormatDates renders dates as ISO 8601 calendar dates.
func FormatDates(dates []time.Time) []string {
	formatted := make([]string, len(dates))
	for i, date := range dates {
		formatted[i] = date.Format(time.DateOnly)
	}
	return formatted
}

// EventSource lists the events of a zone. exclude, when set, is the ID of
// an event to leave out.
type EventSource interface {
	ForZone(ctx context.Context, zoneID int, exclude *int) ([]*Event, error)
}

// Engine answers availability queries for zones.
type Engine struct {
	events EventSource
	policy Policy
}

func NewEngine(events EventSource, policy Policy) *Engine {
	return &Engine{
		events: events,
		policy: policy,
	}
}

func (engine *Engine) Policy() Policy {
	return engine.policy
}

// Dates returns the unavailable dates of the zone as of the given instant.
func (engine *Engine) Dates(ctx context.Context, zone *zones.Zone, asOf time.Time) ([]time.Time, error) {
	existing, err := engine.events.ForZone(ctx, zone.ID, nil)
	if err != nil {
		return nil, err
	}

	return UnavailableDates(existing, calendar.Day(asOf, engine.policy.Location), engine.policy, nil), nil
}

// UnavailableDates returns the unavailable dates of the zone as ISO dates.
func (engine *Engine) UnavailableDates(ctx context.Context, zone *zones.Zone, asOf time.Time) ([]string, error) {
	dates, err := engine.Dates(ctx, zone, asOf)
	if err != nil {
		return nil, err
	}
	return FormatDates(dates), nil
}
