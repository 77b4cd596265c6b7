package events

import (
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/calendar"
	"github.com/twpayne/go-geos"
)

type State string

const (
	StateWaitingForApproval State = "waiting_for_approval"
	StateApproved           State = "approved"
)

// ParseState converts a state name into a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateWaitingForApproval, StateApproved:
		return State(s), nil
	}
	return "", fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, s)
}

// Event is a cleanup event organised inside a contract zone.
type Event struct {
	ID                     int        `json:"id"`
	State                  State      `json:"state"`
	CreatedAt              time.Time  `json:"created_at"`
	ModifiedAt             time.Time  `json:"modified_at"`
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	StartTime              time.Time  `json:"start_time"`
	EndTime                time.Time  `json:"end_time"`
	Location               *geos.Geom `json:"-"`
	OrganizerFirstName     string     `json:"organizer_first_name"`
	OrganizerLastName      string     `json:"organizer_last_name"`
	OrganizerEmail         string     `json:"organizer_email"`
	OrganizerPhone         string     `json:"organizer_phone"`
	EstimatedAttendeeCount int        `json:"estimated_attendee_count"`
	Targets                string     `json:"targets"`
	MaintenanceLocation    string     `json:"maintenance_location"`
	AdditionalInformation  string     `json:"additional_information"`
	TrashBagCount          int        `json:"trash_bag_count"`
	TrashPickerCount       int        `json:"trash_picker_count"`
	HasRollOffDumpster     bool       `json:"has_roll_off_dumpster"`
	EquipmentInformation   string     `json:"equipment_information"`
	ReminderSentAt         *time.Time `json:"reminder_sent_at,omitempty"`
	ZoneID                 int        `json:"contract_zone"`
}

// StartDate is the local calendar date the event starts on.
func (event *Event) StartDate(loc *time.Location) time.Time {
	return calendar.Day(event.StartTime, loc)
}

// Dates returns every local calendar date the event spans.
func (event *Event) Dates(loc *time.Location) []time.Time {
	return calendar.DateRange(calendar.Day(event.StartTime, loc), calendar.Day(event.EndTime, loc))
}

// Transition moves the event to the given state. The only allowed change is
// waiting_for_approval -> approved; moving to the current state is a no-op.
// The returned bool reports whether the state changed.
func (event *Event) Transition(to State) (bool, error) {
	if event.State == to {
		return false, nil
	}
	if event.State == StateWaitingForApproval && to == StateApproved {
		event.State = to
		return true, nil
	}
	return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, event.State, to)
}

// Approved reports whether the event has been approved.
func (event *Event) Approved() bool {
	return event.State == StateApproved
}

// ReminderDay is the date the organizer's contacts should be reminded of the
// event: the local start date minus the configured lead, moved back to the
// closest working day.
func (event *Event) ReminderDay(policy Policy) time.Time {
	day := event.StartDate(policy.Location).AddDate(0, 0, -policy.ReminderDays)
	return calendar.PrecedingWorkingDay(day)
}

func (event *Event) String() string {
	return fmt.Sprintf("%s (%s)", event.Name, event.StartTime.Format(time.DateOnly))
}
