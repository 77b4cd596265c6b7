package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE SCHEMA IF NOT EXISTS users`,
	`CREATE SCHEMA IF NOT EXISTS zones`,
	`CREATE SCHEMA IF NOT EXISTS events`,
	`CREATE TABLE IF NOT EXISTS users.users (
		id SERIAL PRIMARY KEY,
		uuid UUID NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		is_official BOOLEAN NOT NULL DEFAULT false,
		is_contractor BOOLEAN NOT NULL DEFAULT false,
		is_superuser BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS zones.contract_zones (
		id SERIAL PRIMARY KEY,
		origin_id VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		boundary geometry(MultiPolygon, 4326) NOT NULL,
		contact_person VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(254) NOT NULL DEFAULT '',
		phone VARCHAR(255) NOT NULL DEFAULT '',
		secondary_contact_person VARCHAR(255) NOT NULL DEFAULT '',
		secondary_email VARCHAR(254) NOT NULL DEFAULT '',
		secondary_phone VARCHAR(255) NOT NULL DEFAULT '',
		contractor VARCHAR(255) NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE INDEX IF NOT EXISTS contract_zones_boundary_idx ON zones.contract_zones USING GIST (boundary)`,
	`CREATE TABLE IF NOT EXISTS zones.contract_zone_contractors (
		zone_id INTEGER NOT NULL REFERENCES zones.contract_zones(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users.users(id) ON DELETE CASCADE,
		PRIMARY KEY (zone_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS events.events (
		id SERIAL PRIMARY KEY,
		state VARCHAR(50) NOT NULL DEFAULT 'waiting_for_approval',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		location geometry(Point, 4326) NOT NULL,
		organizer_first_name VARCHAR(100) NOT NULL,
		organizer_last_name VARCHAR(100) NOT NULL,
		organizer_email VARCHAR(254) NOT NULL,
		organizer_phone VARCHAR(50) NOT NULL,
		estimated_attendee_count INTEGER NOT NULL CHECK (estimated_attendee_count >= 0),
		targets TEXT NOT NULL,
		maintenance_location TEXT NOT NULL,
		additional_information TEXT NOT NULL DEFAULT '',
		trash_bag_count INTEGER NOT NULL CHECK (trash_bag_count >= 0),
		trash_picker_count INTEGER NOT NULL CHECK (trash_picker_count >= 0),
		has_roll_off_dumpster BOOLEAN NOT NULL DEFAULT false,
		equipment_information TEXT NOT NULL DEFAULT '',
		reminder_sent_at TIMESTAMPTZ,
		contract_zone_id INTEGER NOT NULL REFERENCES zones.contract_zones(id) ON DELETE RESTRICT,
		CHECK (start_time < end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS events_zone_start_idx ON events.events (contract_zone_id, start_time)`,
}

// Migrate creates the schemas and tables if they do not exist yet.
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	log.Info().Int("statements", len(migrations)).Msg("database schema up to date")

	return nil
}
