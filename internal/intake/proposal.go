package intake

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/events"
	"github.com/harava/talkoot/internal/zones"
)

const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionApprove = "approve"
	ActionDelete  = "delete"
)

// Proposal is a queued request to write an event.
type Proposal struct {
	Action  string        `json:"action" validate:"required,oneof=create update approve delete"`
	EventID int           `json:"event_id" validate:"required_unless=Action create,gte=0"`
	User    *uuid.UUID    `json:"user"`
	Event   *EventPayload `json:"event" validate:"required_if=Action create"`
}

// Point is a GeoJSON point in WGS 84.
type Point struct {
	Type        string    `json:"type" validate:"eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"len=2,lonlat"`
}

type EventPayload struct {
	Name                   *string    `json:"name" validate:"omitempty,max=255"`
	Description            *string    `json:"description"`
	StartTime              *time.Time `json:"start_time"`
	EndTime                *time.Time `json:"end_time"`
	Location               *Point     `json:"location"`
	OrganizerFirstName     *string    `json:"organizer_first_name" validate:"omitempty,max=100"`
	OrganizerLastName      *string    `json:"organizer_last_name" validate:"omitempty,max=100"`
	OrganizerEmail         *string    `json:"organizer_email" validate:"omitempty,email,max=254"`
	OrganizerPhone         *string    `json:"organizer_phone" validate:"omitempty,max=50"`
	EstimatedAttendeeCount *int       `json:"estimated_attendee_count" validate:"omitempty,gte=0"`
	Targets                *string    `json:"targets"`
	MaintenanceLocation    *string    `json:"maintenance_location"`
	AdditionalInformation  *string    `json:"additional_information"`
	TrashBagCount          *int       `json:"trash_bag_count" validate:"omitempty,gte=0"`
	TrashPickerCount       *int       `json:"trash_picker_count" validate:"omitempty,gte=0"`
	HasRollOffDumpster     *bool      `json:"has_roll_off_dumpster"`
	EquipmentInformation   *string    `json:"equipment_information"`
	State                  *string    `json:"state" validate:"omitempty,oneof=waiting_for_approval approved"`
}

// Input converts the payload into a service input.
func (payload *EventPayload) Input() events.Input {
	if payload == nil {
		return events.Input{}
	}

	in := events.Input{
		Name:                   payload.Name,
		Description:            payload.Description,
		StartTime:              payload.StartTime,
		EndTime:                payload.EndTime,
		OrganizerFirstName:     payload.OrganizerFirstName,
		OrganizerLastName:      payload.OrganizerLastName,
		OrganizerEmail:         payload.OrganizerEmail,
		OrganizerPhone:         payload.OrganizerPhone,
		EstimatedAttendeeCount: payload.EstimatedAttendeeCount,
		Targets:                payload.Targets,
		MaintenanceLocation:    payload.MaintenanceLocation,
		AdditionalInformation:  payload.AdditionalInformation,
		TrashBagCount:          payload.TrashBagCount,
		TrashPickerCount:       payload.TrashPickerCount,
		HasRollOffDumpster:     payload.HasRollOffDumpster,
		EquipmentInformation:   payload.EquipmentInformation,
	}
	if payload.Location != nil {
		in.Location = zones.Point(payload.Location.Coordinates[0], payload.Location.Coordinates[1])
	}
	if payload.State != nil {
		state := events.State(*payload.State)
		in.State = &state
	}

	return in
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("lonlat", validateLonLat)
	return v
}

func validateLonLat(fl validator.FieldLevel) bool {
	coordinates, ok := fl.Field().Interface().([]float64)
	if !ok || len(coordinates) != 2 {
		return false
	}
	lon, lat := coordinates[0], coordinates[1]
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
