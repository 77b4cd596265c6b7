package events

import (
	"context"
	"testing"
	"time"

	"github.com/harava/talkoot/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedEvent(id int, zoneID int, year int, month time.Month, day int) *Event {
	event := existingEvent(id, year, month, day)
	event.State = StateApproved
	event.ZoneID = zoneID
	return event
}

func TestReminderRun(t *testing.T) {
	store := newMemoryStore(
		approvedEvent(1, 1, 2018, time.December, 10),
		approvedEvent(2, 1, 2018, time.December, 20),
		existingEvent(3, 2018, time.December, 10),
	)
	sender := &memorySender{}
	ctx := context.Background()

	// Thursday: the Monday event is reminded on the preceding Friday.
	reminder := NewReminder(store, newIndexZones(), newTestNotifier(sender), testPolicy(), nil, clock(at(2018, time.December, 6, 9)))
	sent, err := reminder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.sent)

	reminder.now = clock(at(2018, time.December, 7, 9))
	sent, err = reminder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.ElementsMatch(t, []string{"kallio@example.com", "kallio2@example.com"}, sender.recipients(notify.TemplateEventReminder))
	assert.Contains(t, store.reminded, 1)

	// Each event is reminded only once.
	reminder.now = clock(at(2018, time.December, 9, 9))
	sent, err = reminder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, sender.recipients(notify.TemplateEventReminder), 2)
}

func TestReminderZoneWithoutContacts(t *testing.T) {
	store := newMemoryStore(approvedEvent(1, 3, 2018, time.December, 10))
	sender := &memorySender{}

	reminder := NewReminder(store, newIndexZones(), newTestNotifier(sender), testPolicy(), nil, clock(at(2018, time.December, 8, 9)))
	sent, err := reminder.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.sent)
	assert.Empty(t, store.reminded)
}
