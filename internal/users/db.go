package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/db"
	"github.com/jackc/pgx/v5"
)

const queryTimeout = 5 * time.Second

const userColumns = `u.id, u.uuid, u.first_name, u.last_name, u.email, u.is_official, u.is_contractor, u.is_superuser`

type Store struct {
	db db.DBTX
}

func NewStore(db db.DBTX) *Store {
	return &Store{db: db}
}

// Get finds a user by ID.
func (store *Store) Get(ctx context.Context, id int) (*User, error) {
	return store.one(ctx, `SELECT `+userColumns+` FROM users.users u WHERE u.id = $1`, id)
}

// GetByUUID finds a user by its public UUID.
func (store *Store) GetByUUID(ctx context.Context, id uuid.UUID) (*User, error) {
	return store.one(ctx, `SELECT `+userColumns+` FROM users.users u WHERE u.uuid = $1`, id)
}

// Officials returns every official, ordered by ID.
func (store *Store) Officials(ctx context.Context) ([]*User, error) {
	return store.many(ctx, `SELECT `+userColumns+` FROM users.users u WHERE u.is_official ORDER BY u.id`)
}

// Contractors returns the contractor users of a zone, ordered by ID.
func (store *Store) Contractors(ctx context.Context, zoneID int) ([]*User, error) {
	return store.many(ctx, `
	SELECT `+userColumns+` FROM users.users u
	JOIN zones.contract_zone_contractors c ON c.user_id = u.id
	WHERE c.zone_id = $1 ORDER BY u.id
	`, zoneID)
}

// ZoneIDs returns the IDs of the zones the user is a contractor of.
func (store *Store) ZoneIDs(ctx context.Context, userID int) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := store.db.Query(ctx, `
	SELECT zone_id FROM zones.contract_zone_contractors WHERE user_id = $1 ORDER BY zone_id
	`, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (store *Store) one(ctx context.Context, sql string, args ...any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user := &User{}
	if err := ScanUser(store.db.QueryRow(ctx, sql, args...), user); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (store *Store) many(ctx context.Context, sql string, args ...any) ([]*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := store.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := ScanUser(rows, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func ScanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.UUID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.IsOfficial,
		&user.IsContractor,
		&user.IsSuperuser,
	)
}
