package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewPublic(t *testing.T) {
	zone := &Zone{ID: 7, Name: "Kallio", ContactPerson: "Pekka", Email: "pekka@example.com", Phone: "555"}

	view := NewView(zone, false, nil, &Stats{EventCount: 3})
	assert.Equal(t, View{ID: 7, Name: "Kallio"}, view)
}

func TestNewViewDetailed(t *testing.T) {
	zone := &Zone{ID: 7, Name: "Kallio", ContactPerson: "Pekka", Email: "pekka@example.com", Phone: "555"}

	view := NewView(zone, true, &Person{FirstName: "Other", Email: "other@example.com"}, &Stats{EventCount: 3, EstimatedAttendeeCount: 120})
	require.NotNil(t, view.ContactPerson)
	assert.Equal(t, "Pekka", *view.ContactPerson)
	assert.Equal(t, "pekka@example.com", *view.Email)
	assert.Equal(t, "555", *view.Phone)
	assert.Equal(t, 3, *view.EventCount)
	assert.Equal(t, 120, *view.EstimatedAttendeeCount)
}

func TestNewViewContractorFallback(t *testing.T) {
	zone := &Zone{ID: 7, Name: "Kallio"}

	view := NewView(zone, true, &Person{FirstName: "Matti", LastName: "Meikäläinen", Email: "matti@example.com"}, nil)
	assert.Equal(t, "Matti Meikäläinen", *view.ContactPerson)
	assert.Equal(t, "matti@example.com", *view.Email)
	assert.Nil(t, view.EventCount)

	view = NewView(zone, true, nil, nil)
	assert.Equal(t, "", *view.ContactPerson)
	assert.Equal(t, "", *view.Email)
}

func TestViewWithUnavailableDates(t *testing.T) {
	view := NewView(&Zone{ID: 1, Name: "Kallio"}, false, nil, nil).WithUnavailableDates([]string{"2018-12-10"})
	assert.Equal(t, []string{"2018-12-10"}, view.UnavailableDates)
}
