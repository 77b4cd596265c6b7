package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/harava/talkoot/internal/health"
	"github.com/harava/talkoot/internal/stream"
	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/zones"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geos"
)

// Store persists events.
type Store interface {
	EventSource
	Get(ctx context.Context, id int) (*Event, error)
	List(ctx context.Context, scope Scope) ([]*Event, error)
	Delete(ctx context.Context, id int) error
	// InZone runs fn in a transaction holding the lock of the zone, so
	// writers of one zone are serialised.
	InZone(ctx context.Context, zoneID int, fn func(tx Tx) error) error
}

// Tx is a store transaction holding a zone lock.
type Tx interface {
	EventSource
	// Lock reads the event and holds its row until the transaction ends.
	Lock(ctx context.Context, id int) (*Event, error)
	Insert(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
}

// ZoneReader finds zones by location and ID.
type ZoneReader interface {
	ZoneLocator
	Get(ctx context.Context, id int) (*zones.Zone, error)
}

// ContractorZones lists the zones a contractor user works in.
type ContractorZones interface {
	ZoneIDs(ctx context.Context, userID int) ([]int, error)
}

// Recorder publishes event lifecycle changes.
type Recorder interface {
	Record(ctx context.Context, eventType string, key string, data any) error
}

// Input is the caller-settable part of an event. Nil fields are left
// unchanged on update.
type Input struct {
	Name                   *string    `json:"name"`
	Description            *string    `json:"description"`
	StartTime              *time.Time `json:"start_time"`
	EndTime                *time.Time `json:"end_time"`
	Location               *geos.Geom `json:"-"`
	OrganizerFirstName     *string    `json:"organizer_first_name"`
	OrganizerLastName      *string    `json:"organizer_last_name"`
	OrganizerEmail         *string    `json:"organizer_email"`
	OrganizerPhone         *string    `json:"organizer_phone"`
	EstimatedAttendeeCount *int       `json:"estimated_attendee_count"`
	Targets                *string    `json:"targets"`
	MaintenanceLocation    *string    `json:"maintenance_location"`
	AdditionalInformation  *string    `json:"additional_information"`
	TrashBagCount          *int       `json:"trash_bag_count"`
	TrashPickerCount       *int       `json:"trash_picker_count"`
	HasRollOffDumpster     *bool      `json:"has_roll_off_dumpster"`
	EquipmentInformation   *string    `json:"equipment_information"`
	State                  *State     `json:"state"`
}

func (in Input) required() error {
	fields := []struct {
		name    string
		missing bool
	}{
		{"name", in.Name == nil || *in.Name == ""},
		{"description", in.Description == nil || *in.Description == ""},
		{"start_time", in.StartTime == nil},
		{"end_time", in.EndTime == nil},
		{"location", in.Location == nil},
		{"organizer_first_name", in.OrganizerFirstName == nil || *in.OrganizerFirstName == ""},
		{"organizer_last_name", in.OrganizerLastName == nil || *in.OrganizerLastName == ""},
		{"organizer_email", in.OrganizerEmail == nil || *in.OrganizerEmail == ""},
		{"organizer_phone", in.OrganizerPhone == nil || *in.OrganizerPhone == ""},
		{"estimated_attendee_count", in.EstimatedAttendeeCount == nil},
		{"targets", in.Targets == nil || *in.Targets == ""},
		{"maintenance_location", in.MaintenanceLocation == nil || *in.MaintenanceLocation == ""},
		{"trash_bag_count", in.TrashBagCount == nil},
		{"trash_picker_count", in.TrashPickerCount == nil},
	}
	for _, field := range fields {
		if field.missing {
			return invalid(field.name, CodeRequired, ErrRequired)
		}
	}
	return nil
}

var errNegative = errors.New("ensure this value is greater than or equal to 0")

func (in Input) counts() error {
	for name, value := range map[string]*int{
		"estimated_attendee_count": in.EstimatedAttendeeCount,
		"trash_bag_count":          in.TrashBagCount,
		"trash_picker_count":       in.TrashPickerCount,
	} {
		if value != nil && *value < 0 {
			return invalid(name, "min_value", errNegative)
		}
	}
	return nil
}

func (in Input) apply(event *Event) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&event.Name, in.Name)
	setString(&event.Description, in.Description)
	setString(&event.OrganizerFirstName, in.OrganizerFirstName)
	setString(&event.OrganizerLastName, in.OrganizerLastName)
	setString(&event.OrganizerEmail, in.OrganizerEmail)
	setString(&event.OrganizerPhone, in.OrganizerPhone)
	setString(&event.Targets, in.Targets)
	setString(&event.MaintenanceLocation, in.MaintenanceLocation)
	setString(&event.AdditionalInformation, in.AdditionalInformation)
	setString(&event.EquipmentInformation, in.EquipmentInformation)
	setInt(&event.EstimatedAttendeeCount, in.EstimatedAttendeeCount)
	setInt(&event.TrashBagCount, in.TrashBagCount)
	setInt(&event.TrashPickerCount, in.TrashPickerCount)
	if in.HasRollOffDumpster != nil {
		event.HasRollOffDumpster = *in.HasRollOffDumpster
	}
	if in.StartTime != nil {
		event.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		event.EndTime = *in.EndTime
	}
	if in.Location != nil {
		event.Location = in.Location
	}
}

type Options struct {
	Notifier *Notifier
	Recorder Recorder
	Health   *health.Health
	Now      func() time.Time
}

// Service creates, modifies and lists events.
type Service struct {
	store     Store
	zones     ZoneReader
	users     ContractorZones
	validator *Validator
	notifier  *Notifier
	recorder  Recorder
	health    *health.Health
	now       func() time.Time
}

func NewService(store Store, zones ZoneReader, users ContractorZones, policy Policy, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		zones:     zones,
		users:     users,
		validator: NewValidator(zones, store, policy, opts.Now),
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		health:    opts.Health,
		now:       opts.Now,
	}
}

func (s *Service) Validator() *Validator {
	return s.validator
}

// errZoneMoved is returned from inside the zone lock when the write no
// longer ends up in the locked zone, e.g. after a concurrent import or edit.
var errZoneMoved = errors.New("location moved to another contract zone")

const writeAttempts = 3

// write runs fn while holding the lock of the zone returned by target. fn
// returns errZoneMoved when what it read under the lock belongs to another
// zone, and the write is retried.
func (s *Service) write(ctx context.Context, target func() (int, error), fn func(tx Tx, zoneID int) (*zones.Zone, error)) (*zones.Zone, error) {
	for attempt := 0; ; attempt++ {
		zoneID, err := target()
		if err != nil {
			return nil, err
		}

		var zone *zones.Zone
		err = s.store.InZone(ctx, zoneID, func(tx Tx) error {
			var err error
			zone, err = fn(tx, zoneID)
			return err
		})
		if errors.Is(err, errZoneMoved) && attempt+1 < writeAttempts {
			log.Warn().Int("zone", zoneID).Msg("contract zone changed during write, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		return zone, nil
	}
}

// target resolves the zone a candidate is written to, before any lock is
// taken.
func (s *Service) target(ctx context.Context, candidate Candidate) (int, error) {
	if candidate.Location != nil {
		zone, err := s.validator.ResolveZone(ctx, candidate.Location)
		if err != nil {
			return 0, err
		}
		return zone.ID, nil
	}
	if candidate.Existing != nil {
		return candidate.Existing.ZoneID, nil
	}
	if _, err := s.validator.Validate(ctx, candidate); err != nil {
		return 0, err
	}
	return 0, invalid("location", CodeRequired, ErrRequired)
}

// validateLocked validates the candidate against the events of the locked
// zone. The returned zone is nil when the location was not part of the
// write.
func (s *Service) validateLocked(ctx context.Context, tx Tx, zoneID int, candidate Candidate) (*zones.Zone, error) {
	resolved, err := s.validator.With(tx).Validate(ctx, candidate)
	if err != nil {
		return nil, err
	}

	effective := 0
	if resolved != nil {
		effective = resolved.ID
	} else if candidate.Existing != nil {
		effective = candidate.Existing.ZoneID
	}
	if effective != zoneID {
		return nil, errZoneMoved
	}

	return resolved, nil
}

// Create stores a new event. The state of new events is always
// waiting_for_approval whatever the input says.
func (s *Service) Create(ctx context.Context, in Input) (*Event, error) {
	if err := in.required(); err != nil {
		return nil, s.rejected(err)
	}
	if err := in.counts(); err != nil {
		return nil, s.rejected(err)
	}

	event := &Event{}
	in.apply(event)
	event.State = StateWaitingForApproval

	candidate := Candidate{StartTime: in.StartTime, EndTime: in.EndTime, Location: in.Location}
	target := func() (int, error) {
		return s.target(ctx, candidate)
	}
	zone, err := s.write(ctx, target, func(tx Tx, zoneID int) (*zones.Zone, error) {
		zone, err := s.validateLocked(ctx, tx, zoneID, candidate)
		if err != nil {
			return nil, err
		}

		now := s.now()
		event.ZoneID = zone.ID
		event.CreatedAt = now
		event.ModifiedAt = now
		return zone, tx.Insert(ctx, event)
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	log.Info().Int("event", event.ID).Int("zone", zone.ID).Msg("event created")
	if s.health != nil {
		s.health.EventsCreated.Inc()
	}
	s.notifier.Created(ctx, zone, event)
	s.record(ctx, stream.EventNew, event)

	return event, nil
}

// Update modifies an event visible to the user. The event is read again
// under the zone lock, so the input and the state transition always apply
// to the stored version.
func (s *Service) Update(ctx context.Context, user *users.User, id int, in Input) (*Event, error) {
	scope, err := s.Scope(ctx, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.visible(ctx, scope, id); err != nil {
		return nil, err
	}
	if err := in.counts(); err != nil {
		return nil, s.rejected(err)
	}

	var (
		updated  *Event
		approved bool
	)
	target := func() (int, error) {
		if in.Location != nil {
			return s.target(ctx, Candidate{Location: in.Location})
		}
		current, err := s.visible(ctx, scope, id)
		if err != nil {
			return 0, err
		}
		return current.ZoneID, nil
	}
	zone, err := s.write(ctx, target, func(tx Tx, zoneID int) (*zones.Zone, error) {
		current, err := tx.Lock(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil || !scope.Allows(current) {
			return nil, ErrNotFound
		}

		next := *current
		in.apply(&next)

		approved = false
		if in.State != nil {
			approved, err = next.Transition(*in.State)
			if err != nil {
				return nil, invalid("state", CodeInvalidState, err)
			}
		}

		candidate := Candidate{Existing: current, StartTime: in.StartTime, EndTime: in.EndTime, Location: in.Location}
		zone, err := s.validateLocked(ctx, tx, zoneID, candidate)
		if err != nil {
			return nil, err
		}
		if zone != nil {
			next.ZoneID = zone.ID
		}
		next.ModifiedAt = s.now()
		if err := tx.Update(ctx, &next); err != nil {
			return nil, err
		}

		updated = &next
		return zone, nil
	})
	if err != nil {
		return nil, s.rejected(err)
	}

	log.Info().Int("event", updated.ID).Int("zone", updated.ZoneID).Bool("approved", approved).Msg("event updated")
	s.record(ctx, stream.EventUpdate, updated)

	if approved {
		if zone == nil {
			zone, err = s.zones.Get(ctx, updated.ZoneID)
			if err != nil {
				log.Error().Err(err).Int("zone", updated.ZoneID).Msg("failed to load contract zone for notifications")
			}
		}
		if s.health != nil {
			s.health.EventsApproved.Inc()
		}
		s.notifier.Approved(ctx, zone, updated)
		s.record(ctx, stream.EventApprove, updated)
	}

	return updated, nil
}

// Delete removes an event visible to the user.
func (s *Service) Delete(ctx context.Context, user *users.User, id int) error {
	event, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", event.ID, err)
	}

	log.Info().Int("event", event.ID).Msg("event deleted")
	s.record(ctx, stream.EventDelete, event)

	return nil
}

// Get returns an event visible to the user, or ErrNotFound.
func (s *Service) Get(ctx context.Context, user *users.User, id int) (*Event, error) {
	scope, err := s.Scope(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, scope, id)
}

func (s *Service) visible(ctx context.Context, scope Scope, id int) (*Event, error) {
	if scope.None() {
		return nil, ErrNotFound
	}

	event, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil || !scope.Allows(event) {
		return nil, ErrNotFound
	}

	return event, nil
}

// List returns the events visible to the user.
func (s *Service) List(ctx context.Context, user *users.User) ([]*Event, error) {
	scope, err := s.Scope(ctx, user)
	if err != nil {
		return nil, err
	}
	if scope.None() {
		return []*Event{}, nil
	}

	return s.store.List(ctx, scope)
}

// Scope resolves the events the user may see.
func (s *Service) Scope(ctx context.Context, user *users.User) (Scope, error) {
	if !user.Authenticated() || user.Privileged() || !user.IsContractor {
		return ScopeFor(user, nil), nil
	}

	ids, err := s.users.ZoneIDs(ctx, user.ID)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to list zones of user %d: %w", user.ID, err)
	}

	return ScopeFor(user, ids), nil
}

func (s *Service) rejected(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) && s.health != nil {
		s.health.EventsRejected.WithLabelValues(verr.Code).Inc()
	}
	return err
}

func (s *Service) record(ctx context.Context, eventType string, event *Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, eventType, strconv.Itoa(event.ID), event); err != nil {
		log.Error().Err(err).Int("event", event.ID).Str("type", eventType).Msg("failed to record event")
	}
}
