package intake

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/events"
	"github.com/harava/talkoot/internal/users"
	zlog "github.com/rs/zerolog/log"
)

type EventService interface {
	Create(ctx context.Context, in events.Input) (*events.Event, error)
	Update(ctx context.Context, user *users.User, id int, in events.Input) (*events.Event, error)
	Delete(ctx context.Context, user *users.User, id int) error
}

type UserResolver interface {
	GetByUUID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// FieldError is one rejected field of a proposal. An empty Field concerns
// the proposal as a whole.
type FieldError struct {
	Field   string   `json:"field,omitempty"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Dates   []string `json:"dates,omitempty"`
}

// EventView is an event as sent back to the proposer.
type EventView struct {
	*events.Event
	Location *Point `json:"location"`
}

func NewEventView(event *events.Event) *EventView {
	view := &EventView{Event: event}
	if event.Location != nil && !event.Location.IsEmpty() {
		view.Location = &Point{Type: "Point", Coordinates: []float64{event.Location.X(), event.Location.Y()}}
	}
	return view
}

type Reply struct {
	OK     bool         `json:"ok"`
	Event  *EventView   `json:"event,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *Reply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Reply) Unmarshal(data []byte) error {
	return json.Unmarshal(data, r)
}

// Handler applies proposals to the event service.
type Handler struct {
	service  EventService
	users    UserResolver
	validate *validator.Validate
}

func NewHandler(service EventService, users UserResolver) *Handler {
	return &Handler{
		service:  service,
		users:    users,
		validate: NewValidator(),
	}
}

// Handle decodes, validates and applies one proposal.
func (handler *Handler) Handle(ctx context.Context, body []byte) *Reply {
	proposal := &Proposal{}
	if err := json.Unmarshal(body, proposal); err != nil {
		return rejected(FieldError{Code: "parse_error", Message: err.Error()})
	}

	if err := handler.validate.StructCtx(ctx, proposal); err != nil {
		return rejected(fieldErrors(err)...)
	}

	log := zlog.With().Str("action", proposal.Action).Int("event", proposal.EventID).Logger()

	var user *users.User
	if proposal.User != nil {
		var err error
		user, err = handler.users.GetByUUID(ctx, *proposal.User)
		if err != nil {
			return failed(err)
		}
		if user == nil {
			return rejected(FieldError{Field: "user", Code: "not_found", Message: "unknown user"})
		}
	}

	var (
		event *events.Event
		err   error
	)
	switch proposal.Action {
	case ActionCreate:
		event, err = handler.service.Create(ctx, proposal.Event.Input())
	case ActionUpdate:
		event, err = handler.service.Update(ctx, user, proposal.EventID, proposal.Event.Input())
	case ActionApprove:
		state := events.StateApproved
		event, err = handler.service.Update(ctx, user, proposal.EventID, events.Input{State: &state})
	case ActionDelete:
		err = handler.service.Delete(ctx, user, proposal.EventID)
	}
	if err != nil {
		reply := replyError(err)
		if !reply.OK && len(reply.Errors) > 0 && reply.Errors[0].Code != "error" {
			log.Info().Str("code", reply.Errors[0].Code).Msg("proposal rejected")
		}
		return reply
	}

	reply := &Reply{OK: true}
	if event != nil {
		reply.Event = NewEventView(event)
	}
	return reply
}

func replyError(err error) *Reply {
	var verr *events.ValidationError
	switch {
	case errors.As(err, &verr):
		return rejected(FieldError{Field: verr.Field, Code: verr.Code, Message: verr.Message(), Dates: verr.Dates})
	case errors.Is(err, events.ErrNotFound):
		return rejected(FieldError{Field: "event_id", Code: "not_found", Message: err.Error()})
	}
	return failed(err)
}

func rejected(errs ...FieldError) *Reply {
	return &Reply{OK: false, Errors: errs}
}

func failed(err error) *Reply {
	zlog.Error().Err(err).Msg("failed to handle proposal")
	return rejected(FieldError{Code: "error", Message: "internal error"})
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Code: "invalid", Message: err.Error()}}
	}

	errs := make([]FieldError, 0, len(verrs))
	for _, verr := range verrs {
		errs = append(errs, FieldError{
			Field:   verr.Field(),
			Code:    verr.Tag(),
			Message: verr.Error(),
		})
	}
	return errs
}
