package intake

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/events"
	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var officialID = uuid.MustParse("6f1b7c9e-2d4a-4b8e-9a51-3c0f2e7d8a10")

type fakeService struct {
	created *events.Input
	updated *events.Input
	user    *users.User
	id      int
	deleted int
	err     error
}

func (service *fakeService) Create(ctx context.Context, in events.Input) (*events.Event, error) {
	service.created = &in
	if service.err != nil {
		return nil, service.err
	}
	return &events.Event{ID: 1, Name: *in.Name, State: events.StateWaitingForApproval, Location: in.Location, ZoneID: 4}, nil
}

func (service *fakeService) Update(ctx context.Context, user *users.User, id int, in events.Input) (*events.Event, error) {
	service.updated = &in
	service.user = user
	service.id = id
	if service.err != nil {
		return nil, service.err
	}
	return &events.Event{ID: id, State: events.StateApproved}, nil
}

func (service *fakeService) Delete(ctx context.Context, user *users.User, id int) error {
	service.user = user
	service.deleted = id
	return service.err
}

type fakeUsers map[uuid.UUID]*users.User

func (u fakeUsers) GetByUUID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return u[id], nil
}

func newTestHandler(service *fakeService) *Handler {
	return NewHandler(service, fakeUsers{officialID: {ID: 100, UUID: officialID, IsOfficial: true}})
}

const createProposal = `{
	"action": "create",
	"event": {
		"name": "Park cleanup",
		"description": "Raking leaves",
		"start_time": "2018-12-10T10:00:00+02:00",
		"end_time": "2018-12-10T14:00:00+02:00",
		"location": {"type": "Point", "coordinates": [24.5, 60.5]},
		"organizer_email": "matti@example.com",
		"trash_bag_count": 10,
		"state": "approved"
	}
}`

func TestHandleCreate(t *testing.T) {
	service := &fakeService{}
	reply := newTestHandler(service).Handle(context.Background(), []byte(createProposal))

	require.True(t, reply.OK, "%+v", reply.Errors)
	require.NotNil(t, service.created)
	assert.Equal(t, "Park cleanup", *service.created.Name)
	assert.True(t, service.created.StartTime.Equal(time.Date(2018, time.December, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, service.created.Location.Equals(zones.Point(24.5, 60.5)))
	assert.Equal(t, events.StateApproved, *service.created.State)

	require.NotNil(t, reply.Event)
	assert.Equal(t, []float64{24.5, 60.5}, reply.Event.Location.Coordinates)

	body, err := reply.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"contract_zone":4`)
	assert.Contains(t, string(body), `"location":{"type":"Point","coordinates":[24.5,60.5]}`)
}

func TestHandleApprove(t *testing.T) {
	service := &fakeService{}
	reply := newTestHandler(service).Handle(context.Background(), []byte(`{"action": "approve", "event_id": 7, "user": "`+officialID.String()+`"}`))

	require.True(t, reply.OK, "%+v", reply.Errors)
	assert.Equal(t, 7, service.id)
	assert.Equal(t, 100, service.user.ID)
	assert.Equal(t, events.StateApproved, *service.updated.State)
}

func TestHandleDeleteAnonymous(t *testing.T) {
	service := &fakeService{err: events.ErrNotFound}
	reply := newTestHandler(service).Handle(context.Background(), []byte(`{"action": "delete", "event_id": 7}`))

	assert.False(t, reply.OK)
	assert.Nil(t, service.user)
	assert.Equal(t, []FieldError{{Field: "event_id", Code: "not_found", Message: events.ErrNotFound.Error()}}, reply.Errors)
}

func TestHandleValidationError(t *testing.T) {
	service := &fakeService{err: &events.ValidationError{Code: events.CodeUnavailableDates, Dates: []string{"2018-12-10"}, Err: events.ErrCapacityExceeded}}
	reply := newTestHandler(service).Handle(context.Background(), []byte(createProposal))

	assert.False(t, reply.OK)
	require.Len(t, reply.Errors, 1)
	assert.Equal(t, events.CodeUnavailableDates, reply.Errors[0].Code)
	assert.Equal(t, []string{"2018-12-10"}, reply.Errors[0].Dates)
	assert.Equal(t, events.ErrCapacityExceeded.Error(), reply.Errors[0].Message)
}

func TestHandleInvalidProposals(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		code  string
	}{
		{"not json", `{`, "", "parse_error"},
		{"unknown action", `{"action": "cancel", "event_id": 1}`, "action", "oneof"},
		{"update without id", `{"action": "update", "event": {}}`, "event_id", "required_unless"},
		{"create without event", `{"action": "create"}`, "event", "required_if"},
		{"bad email", `{"action": "create", "event": {"organizer_email": "matti"}}`, "organizer_email", "email"},
		{"negative count", `{"action": "create", "event": {"trash_bag_count": -1}}`, "trash_bag_count", "gte"},
		{"bad state", `{"action": "update", "event_id": 1, "event": {"state": "rejected"}}`, "state", "oneof"},
		{"bad point", `{"action": "create", "event": {"location": {"type": "Point", "coordinates": [24.5]}}}`, "coordinates", "len"},
		{"point out of range", `{"action": "create", "event": {"location": {"type": "Point", "coordinates": [240, 60]}}}`, "coordinates", "lonlat"},
		{"not a point", `{"action": "create", "event": {"location": {"type": "Polygon", "coordinates": [24, 60]}}}`, "type", "eq"},
		{"unknown user", `{"action": "approve", "event_id": 1, "user": "` + uuid.NewString() + `"}`, "user", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeService{}
			reply := newTestHandler(service).Handle(context.Background(), []byte(tt.body))

			assert.False(t, reply.OK)
			require.NotEmpty(t, reply.Errors)
			assert.Equal(t, tt.field, reply.Errors[0].Field)
			assert.Equal(t, tt.code, reply.Errors[0].Code)
			assert.Nil(t, service.created)
			assert.Nil(t, service.updated)
		})
	}
}
