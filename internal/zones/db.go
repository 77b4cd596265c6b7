package zones

import (
	"context"
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/twpayne/go-geos"
)

const queryTimeout = 5 * time.Second

const zoneColumns = `
	z.id, z.origin_id, z.name, z.boundary, z.contact_person, z.email, z.phone,
	z.secondary_contact_person, z.secondary_email, z.secondary_phone, z.contractor, z.active,
	ARRAY(SELECT c.user_id FROM zones.contract_zone_contractors c WHERE c.zone_id = z.id ORDER BY c.user_id)`

// Store reads and writes contract zones in PostGIS.
type Store struct {
	db db.DBTX
}

func NewStore(db db.DBTX) *Store {
	return &Store{db: db}
}

// Tx runs fn with a store bound to a single transaction.
func (store *Store) Tx(ctx context.Context, fn func(store *Store) error) error {
	return db.InTx(ctx, store.db, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
}

// Sync runs the import of the records in a single transaction.
func (store *Store) Sync(ctx context.Context, records []Record) (*SyncReport, error) {
	var report *SyncReport
	err := store.Tx(ctx, func(tx *Store) error {
		var err error
		report, err = Sync(ctx, tx, records)
		return err
	})
	return report, err
}

// FindCovering returns the first zone by ID whose boundary covers the point.
func (store *Store) FindCovering(ctx context.Context, point *geos.Geom, activeOnly bool) (*Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := store.db.QueryRow(ctx, `
	SELECT `+zoneColumns+` FROM zones.contract_zones z
	WHERE ST_Covers(z.boundary, ST_SetSRID($1::geometry, 4326)) AND (z.active OR NOT $2)
	ORDER BY z.id LIMIT 1
	`, point, activeOnly)

	zone := &Zone{}
	if err := ScanZone(row, zone); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return zone, nil
}

// Get finds a zone by its ID.
func (store *Store) Get(ctx context.Context, id int) (*Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := store.db.QueryRow(ctx, `
	SELECT `+zoneColumns+` FROM zones.contract_zones z WHERE z.id = $1
	`, id)

	zone := &Zone{}
	if err := ScanZone(row, zone); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return zone, nil
}

// All returns every zone, active or not, ordered by ID.
func (store *Store) All(ctx context.Context) ([]*Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := store.db.Query(ctx, `
	SELECT `+zoneColumns+` FROM zones.contract_zones z ORDER BY z.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []*Zone
	for rows.Next() {
		zone := &Zone{}
		if err := ScanZone(rows, zone); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}

	return zones, rows.Err()
}

// Upsert creates or updates the zone identified by the record's origin ID.
// Contact details and contractor users are managed by admins and left untouched.
// Inside a transaction the statement runs in its own savepoint, so a row the
// database rejects does not abort the rest of the import.
func (store *Store) Upsert(ctx context.Context, record Record) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		id      int
		created bool
	)
	err := db.InTx(ctx, store.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
	INSERT INTO zones.contract_zones (origin_id, name, boundary, contractor, active)
	VALUES ($1, $2, ST_Multi(ST_SetSRID($3::geometry, 4326)), $4, $5)
	ON CONFLICT (origin_id) DO UPDATE SET
		name = EXCLUDED.name, boundary = EXCLUDED.boundary,
		contractor = EXCLUDED.contractor, active = EXCLUDED.active
	RETURNING id, (xmax = 0)
	`, record.OriginID, record.Name, record.Boundary, record.Contractor, record.Active).Scan(&id, &created)
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert contract zone %s: %w", record.OriginID, err)
	}

	return id, created, nil
}

// CountActive returns the number of active zones.
func (store *Store) CountActive(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := store.db.QueryRow(ctx, `SELECT COUNT(*) FROM zones.contract_zones WHERE active`).Scan(&count)
	return count, err
}

// Deactivate marks the zones inactive. Already inactive zones are not touched.
func (store *Store) Deactivate(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := store.db.Exec(ctx, `
	UPDATE zones.contract_zones SET active = false WHERE id = ANY($1) AND active
	`, ids)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// SetContractors replaces the contractor users of a zone.
func (store *Store) SetContractors(ctx context.Context, zoneID int, userIDs []int) error {
	return db.InTx(ctx, store.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM zones.contract_zone_contractors WHERE zone_id = $1`, zoneID); err != nil {
			return err
		}
		for _, userID := range userIDs {
			if _, err := tx.Exec(ctx, `
			INSERT INTO zones.contract_zone_contractors (zone_id, user_id) VALUES ($1, $2)
			`, zoneID, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// YearStats returns event statistics per zone for events starting in the
// given year, in local time of loc.
func (store *Store) YearStats(ctx context.Context, year int, loc *time.Location) (map[int]Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := store.db.Query(ctx, `
	SELECT z.id, COUNT(e.id), COALESCE(SUM(e.estimated_attendee_count), 0)
	FROM zones.contract_zones z
	LEFT JOIN events.events e ON e.contract_zone_id = z.id AND EXTRACT(YEAR FROM e.start_time AT TIME ZONE $2) = $1
	GROUP BY z.id
	`, year, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[int]Stats{}
	for rows.Next() {
		var (
			id int
			s  Stats
		)
		if err := rows.Scan(&id, &s.EventCount, &s.EstimatedAttendeeCount); err != nil {
			return nil, err
		}
		stats[id] = s
	}

	return stats, rows.Err()
}

func ScanZone(row pgx.Row, zone *Zone) error {
	return row.Scan(
		&zone.ID,
		&zone.OriginID,
		&zone.Name,
		&zone.Boundary,
		&zone.ContactPerson,
		&zone.Email,
		&zone.Phone,
		&zone.SecondaryContactPerson,
		&zone.SecondaryEmail,
		&zone.SecondaryPhone,
		&zone.Contractor,
		&zone.Active,
		&zone.ContractorUsers,
	)
}
