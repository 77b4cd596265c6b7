package events

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRequired               = errors.New("this field is required")
	ErrInvalidTimeRange       = errors.New("event must end after it starts")
	ErrLocationOutsideAnyZone = errors.New("location is not inside any contract zone")
	ErrZoneInactive           = errors.New("location is inside an inactive contract zone")
	ErrLeadTimeViolation      = errors.New("event starts too soon")
	ErrCapacityExceeded       = errors.New("contract zone is fully booked on the requested dates")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrNotFound               = errors.New("event not found")
)

// Codes carried by ValidationError.
const (
	CodeRequired         = "required"
	CodeInvalidTimeRange = "invalid_time_range"
	CodeNoContractZone   = "no_contract_zone"
	CodeZoneInactive     = "zone_inactive"
	CodeUnavailableDates = "unavailable_dates"
	CodeInvalidState     = "invalid_state"
)

// ValidationError is a field-level rejection of an event write. An empty
// Field means the error concerns the event as a whole.
type ValidationError struct {
	Field string   `json:"field,omitempty"`
	Code  string   `json:"code"`
	Dates []string `json:"dates,omitempty"`
	Err   error    `json:"-"`
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if len(e.Dates) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Dates, ", "))
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Message is the reason without the field prefix or dates.
func (e *ValidationError) Message() string {
	return e.Err.Error()
}

func invalid(field, code string, err error) *ValidationError {
	return &ValidationError{Field: field, Code: code, Err: err}
}
