package events

import (
	"context"
	"time"

	"github.com/harava/talkoot/internal/calendar"
	"github.com/harava/talkoot/internal/zones"
	"github.com/twpayne/go-geos"
)

// ZoneLocator finds the zone covering a point.
type ZoneLocator interface {
	FindCovering(ctx context.Context, point *geos.Geom, activeOnly bool) (*zones.Zone, error)
}

// Candidate is a proposed event write. Existing is nil for new events; for
// edits the nil fields keep the existing event's values.
type Candidate struct {
	Existing  *Event
	StartTime *time.Time
	EndTime   *time.Time
	Location  *geos.Geom
}

func (candidate Candidate) times() (start, end time.Time) {
	if candidate.Existing != nil {
		start, end = candidate.Existing.StartTime, candidate.Existing.EndTime
	}
	if candidate.StartTime != nil {
		start = *candidate.StartTime
	}
	if candidate.EndTime != nil {
		end = *candidate.EndTime
	}
	return start, end
}

func (candidate Candidate) timesChanged() bool {
	existing := candidate.Existing
	if existing == nil {
		return true
	}
	return (candidate.StartTime != nil && !candidate.StartTime.Equal(existing.StartTime)) ||
		(candidate.EndTime != nil && !candidate.EndTime.Equal(existing.EndTime))
}

func (candidate Candidate) exclude() *int {
	if candidate.Existing == nil {
		return nil
	}
	id := candidate.Existing.ID
	return &id
}

// Validator checks event writes against the zones and their availability.
type Validator struct {
	zones  ZoneLocator
	events EventSource
	policy Policy
	now    func() time.Time
}

func NewValidator(zones ZoneLocator, events EventSource, policy Policy, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		zones:  zones,
		events: events,
		policy: policy,
		now:    now,
	}
}

// With returns a copy of the validator reading events from the given source,
// typically a transaction holding the zone lock.
func (v *Validator) With(events EventSource) *Validator {
	bound := *v
	bound.events = events
	return &bound
}

// ResolveZone returns the active zone covering the location.
func (v *Validator) ResolveZone(ctx context.Context, location *geos.Geom) (*zones.Zone, error) {
	zone, err := v.zones.FindCovering(ctx, location, true)
	if err != nil {
		return nil, err
	}
	if zone != nil {
		return zone, nil
	}

	inactive, err := v.zones.FindCovering(ctx, location, false)
	if err != nil {
		return nil, err
	}
	if inactive != nil {
		return nil, invalid("location", CodeZoneInactive, ErrZoneInactive)
	}

	return nil, invalid("location", CodeNoContractZone, ErrLocationOutsideAnyZone)
}

// Validate checks the candidate and returns the zone resolved from its
// location, or nil when the location was not part of the write. Rejections
// are returned as *ValidationError.
func (v *Validator) Validate(ctx context.Context, candidate Candidate) (*zones.Zone, error) {
	if candidate.Existing == nil {
		switch {
		case candidate.StartTime == nil:
			return nil, invalid("start_time", CodeRequired, ErrRequired)
		case candidate.EndTime == nil:
			return nil, invalid("end_time", CodeRequired, ErrRequired)
		case candidate.Location == nil:
			return nil, invalid("location", CodeRequired, ErrRequired)
		}
	}

	start, end := candidate.times()
	if (candidate.StartTime != nil || candidate.EndTime != nil) && !end.After(start) {
		return nil, invalid("", CodeInvalidTimeRange, ErrInvalidTimeRange)
	}

	var (
		zone   *zones.Zone
		zoneID int
	)
	if candidate.Location != nil {
		var err error
		zone, err = v.ResolveZone(ctx, candidate.Location)
		if err != nil {
			return nil, err
		}
		zoneID = zone.ID
	} else if candidate.Existing != nil {
		zoneID = candidate.Existing.ZoneID
	}

	zoneChanged := zone != nil && candidate.Existing != nil && zone.ID != candidate.Existing.ZoneID
	if zoneID != 0 && (candidate.timesChanged() || zoneChanged) {
		if err := v.checkDates(ctx, zoneID, start, end, candidate.exclude()); err != nil {
			return nil, err
		}
	}

	return zone, nil
}

func (v *Validator) checkDates(ctx context.Context, zoneID int, start, end time.Time, exclude *int) error {
	existing, err := v.events.ForZone(ctx, zoneID, exclude)
	if err != nil {
		return err
	}

	today := calendar.Day(v.now(), v.policy.Location)
	unavailable := map[time.Time]struct{}{}
	for _, date := range UnavailableDates(existing, today, v.policy, exclude) {
		unavailable[date] = struct{}{}
	}

	lastTooEarly := v.policy.LastBlockedDay(today)
	tooEarly := false
	offending := []time.Time{}
	for _, date := range calendar.DateRange(calendar.Day(start, v.policy.Location), calendar.Day(end, v.policy.Location)) {
		if _, ok := unavailable[date]; ok {
			offending = append(offending, date)
			if !date.After(lastTooEarly) {
				tooEarly = true
			}
		}
	}
	if len(offending) == 0 {
		return nil
	}

	err = ErrCapacityExceeded
	if tooEarly {
		err = ErrLeadTimeViolation
	}
	return &ValidationError{
		Code:  CodeUnavailableDates,
		Dates: FormatDates(offending),
		Err:   err,
	}
}
