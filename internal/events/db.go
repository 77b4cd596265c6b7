package events

import (
	"context"
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/db"
	"github.com/jackc/pgx/v5"
)

const queryTimeout = 5 * time.Second

const eventColumns = `
	e.id, e.state, e.created_at, e.modified_at, e.name, e.description, e.start_time, e.end_time,
	e.location, e.organizer_first_name, e.organizer_last_name, e.organizer_email, e.organizer_phone,
	e.estimated_attendee_count, e.targets, e.maintenance_location, e.additional_information,
	e.trash_bag_count, e.trash_picker_count, e.has_roll_off_dumpster, e.equipment_information,
	e.reminder_sent_at, e.contract_zone_id`

// PostgresStore keeps events in PostgreSQL.
type PostgresStore struct {
	db db.DBTX
}

func NewPostgresStore(db db.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// InZone locks the zone row for the length of the transaction.
func (store *PostgresStore) InZone(ctx context.Context, zoneID int, fn func(tx Tx) error) error {
	return db.InTx(ctx, store.db, func(tx pgx.Tx) error {
		var id int
		err := tx.QueryRow(ctx, `SELECT id FROM zones.contract_zones WHERE id = $1 FOR UPDATE`, zoneID).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to lock contract zone %d: %w", zoneID, err)
		}

		return fn(NewPostgresStore(tx))
	})
}

// ForZone returns the events of a zone ordered by start time.
func (store *PostgresStore) ForZone(ctx context.Context, zoneID int, exclude *int) ([]*Event, error) {
	excluded := 0
	if exclude != nil {
		excluded = *exclude
	}

	return store.query(ctx, `
	SELECT `+eventColumns+` FROM events.events e
	WHERE e.contract_zone_id = $1 AND e.id <> $2
	ORDER BY e.start_time, e.id
	`, zoneID, excluded)
}

// Get finds an event by ID.
func (store *PostgresStore) Get(ctx context.Context, id int) (*Event, error) {
	return store.one(ctx, `SELECT `+eventColumns+` FROM events.events e WHERE e.id = $1`, id)
}

// Lock finds an event by ID and locks its row. Only meaningful inside InZone.
func (store *PostgresStore) Lock(ctx context.Context, id int) (*Event, error) {
	return store.one(ctx, `SELECT `+eventColumns+` FROM events.events e WHERE e.id = $1 FOR UPDATE`, id)
}

func (store *PostgresStore) one(ctx context.Context, sql string, args ...any) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	event := &Event{}
	err := ScanEvent(store.db.QueryRow(ctx, sql, args...), event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return event, nil
}

// List returns the events within the scope, newest first.
func (store *PostgresStore) List(ctx context.Context, scope Scope) ([]*Event, error) {
	if scope.All() {
		return store.query(ctx, `SELECT `+eventColumns+` FROM events.events e ORDER BY e.start_time DESC, e.id`)
	}

	return store.query(ctx, `
	SELECT `+eventColumns+` FROM events.events e
	WHERE e.contract_zone_id = ANY($1)
	ORDER BY e.start_time DESC, e.id
	`, scope.ZoneIDs())
}

// Unreminded returns the approved events without a sent reminder.
func (store *PostgresStore) Unreminded(ctx context.Context) ([]*Event, error) {
	return store.query(ctx, `
	SELECT `+eventColumns+` FROM events.events e
	WHERE e.state = $1 AND e.reminder_sent_at IS NULL
	ORDER BY e.start_time, e.id
	`, StateApproved)
}

func (store *PostgresStore) Insert(ctx context.Context, event *Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return store.db.QueryRow(ctx, `
	INSERT INTO events.events (state, created_at, modified_at, name, description, start_time, end_time,
		location, organizer_first_name, organizer_last_name, organizer_email, organizer_phone,
		estimated_attendee_count, targets, maintenance_location, additional_information,
		trash_bag_count, trash_picker_count, has_roll_off_dumpster, equipment_information,
		reminder_sent_at, contract_zone_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, ST_SetSRID($8::geometry, 4326), $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	RETURNING id
	`, event.State, event.CreatedAt, event.ModifiedAt, event.Name, event.Description, event.StartTime, event.EndTime,
		event.Location, event.OrganizerFirstName, event.OrganizerLastName, event.OrganizerEmail, event.OrganizerPhone,
		event.EstimatedAttendeeCount, event.Targets, event.MaintenanceLocation, event.AdditionalInformation,
		event.TrashBagCount, event.TrashPickerCount, event.HasRollOffDumpster, event.EquipmentInformation,
		event.ReminderSentAt, event.ZoneID).Scan(&event.ID)
}

func (store *PostgresStore) Update(ctx context.Context, event *Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := store.db.Exec(ctx, `
	UPDATE events.events SET state = $2, modified_at = $3, name = $4, description = $5,
		start_time = $6, end_time = $7, location = ST_SetSRID($8::geometry, 4326),
		organizer_first_name = $9, organizer_last_name = $10, organizer_email = $11, organizer_phone = $12,
		estimated_attendee_count = $13, targets = $14, maintenance_location = $15, additional_information = $16,
		trash_bag_count = $17, trash_picker_count = $18, has_roll_off_dumpster = $19,
		equipment_information = $20, contract_zone_id = $21
	WHERE id = $1
	`, event.ID, event.State, event.ModifiedAt, event.Name, event.Description,
		event.StartTime, event.EndTime, event.Location,
		event.OrganizerFirstName, event.OrganizerLastName, event.OrganizerEmail, event.OrganizerPhone,
		event.EstimatedAttendeeCount, event.Targets, event.MaintenanceLocation, event.AdditionalInformation,
		event.TrashBagCount, event.TrashPickerCount, event.HasRollOffDumpster,
		event.EquipmentInformation, event.ZoneID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (store *PostgresStore) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := store.db.Exec(ctx, `DELETE FROM events.events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkReminded stamps the reminder time unless one is already set.
func (store *PostgresStore) MarkReminded(ctx context.Context, id int, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := store.db.Exec(ctx, `
	UPDATE events.events SET reminder_sent_at = $2 WHERE id = $1 AND reminder_sent_at IS NULL
	`, id, at)
	return err
}

func (store *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := store.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		if err := ScanEvent(rows, event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func ScanEvent(row pgx.Row, event *Event) error {
	var state string
	err := row.Scan(
		&event.ID,
		&state,
		&event.CreatedAt,
		&event.ModifiedAt,
		&event.Name,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.OrganizerFirstName,
		&event.OrganizerLastName,
		&event.OrganizerEmail,
		&event.OrganizerPhone,
		&event.EstimatedAttendeeCount,
		&event.Targets,
		&event.MaintenanceLocation,
		&event.AdditionalInformation,
		&event.TrashBagCount,
		&event.TrashPickerCount,
		&event.HasRollOffDumpster,
		&event.EquipmentInformation,
		&event.ReminderSentAt,
		&event.ZoneID,
	)
	if err != nil {
		return err
	}

	event.State, err = ParseState(state)
	if err != nil {
		return fmt.Errorf("event %d: %w", event.ID, err)
	}
	return nil
}
