package zones

import "strings"

// Stats are the yearly event statistics of a zone.
type Stats struct {
	EventCount             int `json:"event_count"`
	EstimatedAttendeeCount int `json:"estimated_attendee_count"`
}

// Person is the contractor user shown when a zone has no explicit contact.
type Person struct {
	FirstName string
	LastName  string
	Email     string
}

// View is the outward representation of a zone. Contact details and
// statistics are only filled in for callers allowed to see them.
type View struct {
	ID                     int      `json:"id"`
	Name                   string   `json:"name"`
	ContactPerson          *string  `json:"contact_person,omitempty"`
	Email                  *string  `json:"email,omitempty"`
	Phone                  *string  `json:"phone,omitempty"`
	EventCount             *int     `json:"event_count,omitempty"`
	EstimatedAttendeeCount *int     `json:"estimated_attendee_count,omitempty"`
	UnavailableDates       []string `json:"unavailable_dates,omitempty"`
}

// NewView projects a zone. With detailed set the contact fields are included,
// falling back to the first contractor user when the zone has none of its own.
// stats is only used for detailed views and may be nil.
func NewView(zone *Zone, detailed bool, contractor *Person, stats *Stats) View {
	view := View{
		ID:   zone.ID,
		Name: zone.Name,
	}
	if !detailed {
		return view
	}

	contactPerson := zone.ContactPerson
	email := zone.Email
	if contractor != nil {
		if contactPerson == "" {
			contactPerson = strings.TrimSpace(contractor.FirstName + " " + contractor.LastName)
		}
		if email == "" {
			email = contractor.Email
		}
	}
	phone := zone.Phone

	view.ContactPerson = &contactPerson
	view.Email = &email
	view.Phone = &phone

	if stats != nil {
		eventCount := stats.EventCount
		attendees := stats.EstimatedAttendeeCount
		view.EventCount = &eventCount
		view.EstimatedAttendeeCount = &attendees
	}

	return view
}

// WithUnavailableDates returns the view carrying the zone's unavailable dates.
func (view View) WithUnavailableDates(dates []string) View {
	view.UnavailableDates = dates
	return view
}
