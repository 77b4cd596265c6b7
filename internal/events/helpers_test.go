package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harava/talkoot/internal/notify"
	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/zones"
	"github.com/twpayne/go-geos"
)

var helsinki = mustLoad("Europe/Helsinki")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testPolicy() Policy {
	return Policy{
		MinLeadDays:     7,
		MaxEventsPerDay: 3,
		ReminderDays:    2,
		Location:        helsinki,
	}
}

// at is an instant in Helsinki time.
func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, helsinki)
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T {
	return &v
}

func square(lon, lat float64) *geos.Geom {
	return geos.NewPolygon([][][]float64{{
		{lon, lat}, {lon + 1, lat}, {lon + 1, lat + 1}, {lon, lat + 1}, {lon, lat},
	}}).SetSRID(zones.SRID)
}

// Zone 1 is active with contacts, zone 2 is inactive and zone 3 is active
// without contacts, contracted by user 7.
func testZones() []*zones.Zone {
	return []*zones.Zone{
		{ID: 1, OriginID: "1", Name: "Kallio", Boundary: square(24, 60), Email: "kallio@example.com", SecondaryEmail: "kallio2@example.com", Active: true},
		{ID: 2, OriginID: "2", Name: "Vallila", Boundary: square(25, 60), Email: "vallila@example.com", Active: false},
		{ID: 3, OriginID: "3", Name: "Pasila", Boundary: square(26, 60), ContractorUsers: []int{7}, Active: true},
	}
}

type indexZones struct {
	*zones.Index
}

func (z indexZones) Get(ctx context.Context, id int) (*zones.Zone, error) {
	return z.Index.Get(id), nil
}

func newIndexZones() indexZones {
	return indexZones{zones.NewIndex(testZones())}
}

type memoryStore struct {
	mu       sync.Mutex
	zoneMu   sync.Mutex
	events   map[int]*Event
	nextID   int
	locked   []int
	reminded map[int]time.Time
}

func newMemoryStore(events ...*Event) *memoryStore {
	store := &memoryStore{events: map[int]*Event{}, reminded: map[int]time.Time{}}
	for _, event := range events {
		if event.ID == 0 {
			store.nextID++
			event.ID = store.nextID
		} else if event.ID > store.nextID {
			store.nextID = event.ID
		}
		copied := *event
		store.events[event.ID] = &copied
	}
	return store
}

func (store *memoryStore) InZone(ctx context.Context, zoneID int, fn func(tx Tx) error) error {
	store.zoneMu.Lock()
	defer store.zoneMu.Unlock()

	store.mu.Lock()
	store.locked = append(store.locked, zoneID)
	snapshot := map[int]*Event{}
	for id, event := range store.events {
		snapshot[id] = event
	}
	nextID := store.nextID
	store.mu.Unlock()

	if err := fn(store); err != nil {
		store.mu.Lock()
		store.events = snapshot
		store.nextID = nextID
		store.mu.Unlock()
		return err
	}
	return nil
}

func (store *memoryStore) ForZone(ctx context.Context, zoneID int, exclude *int) ([]*Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	events := []*Event{}
	for _, event := range store.sorted() {
		if event.ZoneID != zoneID || (exclude != nil && event.ID == *exclude) {
			continue
		}
		copied := *event
		events = append(events, &copied)
	}
	return events, nil
}

func (store *memoryStore) Get(ctx context.Context, id int) (*Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	event, ok := store.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (store *memoryStore) Lock(ctx context.Context, id int) (*Event, error) {
	return store.Get(ctx, id)
}

func (store *memoryStore) List(ctx context.Context, scope Scope) ([]*Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	events := []*Event{}
	for _, event := range store.sorted() {
		if scope.Allows(event) {
			copied := *event
			events = append(events, &copied)
		}
	}
	return events, nil
}

func (store *memoryStore) Delete(ctx context.Context, id int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.events[id]; !ok {
		return ErrNotFound
	}
	delete(store.events, id)
	return nil
}

func (store *memoryStore) Insert(ctx context.Context, event *Event) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.nextID++
	event.ID = store.nextID
	copied := *event
	store.events[event.ID] = &copied
	return nil
}

func (store *memoryStore) Update(ctx context.Context, event *Event) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.events[event.ID]; !ok {
		return ErrNotFound
	}
	copied := *event
	store.events[event.ID] = &copied
	return nil
}

func (store *memoryStore) Unreminded(ctx context.Context) ([]*Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	events := []*Event{}
	for _, event := range store.sorted() {
		if event.State == StateApproved && event.ReminderSentAt == nil {
			copied := *event
			events = append(events, &copied)
		}
	}
	return events, nil
}

func (store *memoryStore) MarkReminded(ctx context.Context, id int, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	event, ok := store.events[id]
	if !ok {
		return ErrNotFound
	}
	if event.ReminderSentAt == nil {
		event.ReminderSentAt = &at
		store.reminded[id] = at
	}
	return nil
}

func (store *memoryStore) sorted() []*Event {
	events := make([]*Event, 0, len(store.events))
	for _, event := range store.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})
	return events
}

type contractorZones map[int][]int

func (c contractorZones) ZoneIDs(ctx context.Context, userID int) ([]int, error) {
	return c[userID], nil
}

type officials []*users.User

func (o officials) Officials(ctx context.Context) ([]*users.User, error) {
	return o, nil
}

type notification struct {
	recipient string
	template  string
}

type memorySender struct {
	mu   sync.Mutex
	sent []notification
}

func (sender *memorySender) Notify(ctx context.Context, recipient string, template string, data map[string]any) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.sent = append(sender.sent, notification{recipient, template})
	return nil
}

func (sender *memorySender) recipients(template string) []string {
	sender.mu.Lock()
	defer sender.mu.Unlock()

	recipients := []string{}
	for _, n := range sender.sent {
		if n.template == template {
			recipients = append(recipients, n.recipient)
		}
	}
	return recipients
}

type recorded struct {
	eventType string
	key       string
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []recorded
}

func (recorder *memoryRecorder) Record(ctx context.Context, eventType string, key string, data any) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.records = append(recorder.records, recorded{eventType, key})
	return nil
}

func newTestNotifier(sender *memorySender) *Notifier {
	return NewNotifier(notify.NewDispatcher(sender, nil), officials{
		{ID: 100, Email: "official@example.com", IsOfficial: true},
	})
}

// existingEvent is a stored event in zone 1 lasting from 10 to 14 o'clock.
func existingEvent(id int, year int, month time.Month, day int) *Event {
	return &Event{
		ID:        id,
		State:     StateWaitingForApproval,
		Name:      "Park cleanup",
		StartTime: at(year, month, day, 10),
		EndTime:   at(year, month, day, 14),
		Location:  zones.Point(24.5, 60.5),
		ZoneID:    1,
	}
}

// proposal is a complete event input located in zone 1 unless moved.
func proposal(start, end time.Time) Input {
	return Input{
		Name:                   ptr("Park cleanup"),
		Description:            ptr("Raking leaves in the park"),
		StartTime:              ptr(start),
		EndTime:                ptr(end),
		Location:               zones.Point(24.5, 60.5),
		OrganizerFirstName:     ptr("Matti"),
		OrganizerLastName:      ptr("Meikäläinen"),
		OrganizerEmail:         ptr("matti@example.com"),
		OrganizerPhone:         ptr("0401234567"),
		EstimatedAttendeeCount: ptr(20),
		Targets:                ptr("Leaves"),
		MaintenanceLocation:    ptr("Next to the playground"),
		TrashBagCount:          ptr(10),
		TrashPickerCount:       ptr(5),
	}
}
