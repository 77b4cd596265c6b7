package events

import (
	"context"

	"github.com/harava/talkoot/internal/notify"
	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/zones"
	"github.com/rs/zerolog/log"
)

// Officials lists the users notified of every event.
type Officials interface {
	Officials(ctx context.Context) ([]*users.User, error)
}

// Notifier fans event lifecycle changes out to organizers, zone contacts and
// officials. A nil Notifier sends nothing.
type Notifier struct {
	dispatcher *notify.Dispatcher
	officials  Officials
}

func NewNotifier(dispatcher *notify.Dispatcher, officials Officials) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		officials:  officials,
	}
}

// Created notifies the zone contacts and every official of a new event.
func (notifier *Notifier) Created(ctx context.Context, zone *zones.Zone, event *Event) {
	if notifier == nil {
		return
	}
	data := notificationData(zone, event)

	notifier.dispatcher.Send(ctx, contactsOf(zone), notify.TemplateEventCreated, data)
	notifier.dispatcher.Send(ctx, notifier.officialEmails(ctx), notify.TemplateEventCreated, data)
}

// Approved notifies the organizer, the zone contacts and every official.
func (notifier *Notifier) Approved(ctx context.Context, zone *zones.Zone, event *Event) {
	if notifier == nil {
		return
	}
	data := notificationData(zone, event)

	notifier.dispatcher.Send(ctx, []string{event.OrganizerEmail}, notify.TemplateEventApprovedToOrganizer, data)
	notifier.dispatcher.Send(ctx, contactsOf(zone), notify.TemplateEventApprovedToContractor, data)
	notifier.dispatcher.Send(ctx, notifier.officialEmails(ctx), notify.TemplateEventApprovedToOfficial, data)
}

// Reminder notifies the zone contacts of an upcoming event. It reports false
// when the zone has nobody to remind.
func (notifier *Notifier) Reminder(ctx context.Context, zone *zones.Zone, event *Event) bool {
	contacts := contactsOf(zone)
	if len(contacts) == 0 {
		return false
	}
	if notifier != nil {
		notifier.dispatcher.Send(ctx, contacts, notify.TemplateEventReminder, notificationData(zone, event))
	}
	return true
}

func (notifier *Notifier) officialEmails(ctx context.Context) []string {
	if notifier.officials == nil {
		return nil
	}

	officials, err := notifier.officials.Officials(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list officials")
		return nil
	}

	emails := make([]string, 0, len(officials))
	for _, official := range officials {
		emails = append(emails, official.Email)
	}
	return emails
}

func contactsOf(zone *zones.Zone) []string {
	if zone == nil {
		return nil
	}
	return zone.ContactEmails()
}

func notificationData(zone *zones.Zone, event *Event) map[string]any {
	data := map[string]any{
		"event": map[string]any{
			"id":                       event.ID,
			"name":                     event.Name,
			"description":              event.Description,
			"start_time":               event.StartTime,
			"end_time":                 event.EndTime,
			"organizer_first_name":     event.OrganizerFirstName,
			"organizer_last_name":      event.OrganizerLastName,
			"organizer_email":          event.OrganizerEmail,
			"organizer_phone":          event.OrganizerPhone,
			"estimated_attendee_count": event.EstimatedAttendeeCount,
			"targets":                  event.Targets,
			"maintenance_location":     event.MaintenanceLocation,
			"trash_bag_count":          event.TrashBagCount,
			"trash_picker_count":       event.TrashPickerCount,
			"has_roll_off_dumpster":    event.HasRollOffDumpster,
		},
	}
	if zone != nil {
		data["contract_zone"] = zone.Name
	}
	return data
}
