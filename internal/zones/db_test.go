package zones

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAborted = errors.New("current transaction is aborted, commands ignored until end of transaction block")

// abortingTx behaves like a PostgreSQL transaction: once a statement fails,
// everything fails until the enclosing savepoint is rolled back.
type abortingTx struct {
	pgx.Tx
	reject     string
	aborted    bool
	savepoints int
}

func (tx *abortingTx) Begin(ctx context.Context) (pgx.Tx, error) {
	tx.savepoints++
	return &savepoint{abortingTx: tx}, nil
}

func (tx *abortingTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx.aborted {
		return errRow{errAborted}
	}
	if args[0] == tx.reject {
		tx.aborted = true
		return errRow{errors.New("value too long for type character varying(255)")}
	}
	return upsertRow{id: tx.savepoints}
}

type savepoint struct {
	*abortingTx
	done bool
}

func (sp *savepoint) Commit(ctx context.Context) error {
	if sp.aborted {
		return errAborted
	}
	sp.done = true
	return nil
}

func (sp *savepoint) Rollback(ctx context.Context) error {
	if !sp.done {
		sp.done = true
		sp.aborted = false
	}
	return nil
}

type errRow struct {
	err error
}

func (row errRow) Scan(dest ...any) error {
	return row.err
}

type upsertRow struct {
	id int
}

func (row upsertRow) Scan(dest ...any) error {
	*dest[0].(*int) = row.id
	*dest[1].(*bool) = true
	return nil
}

// txRepository runs the upserts of a Store against tx and fakes the rest.
type txRepository struct {
	*Store
	tx *abortingTx
}

func (repo txRepository) All(ctx context.Context) ([]*Zone, error) {
	return nil, nil
}

func (repo txRepository) Deactivate(ctx context.Context, ids []int) (int64, error) {
	if repo.tx.aborted {
		return 0, errAborted
	}
	return int64(len(ids)), nil
}

func TestUpsertRejectedRowKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	tx := &abortingTx{reject: "2"}
	store := NewStore(tx)

	_, _, err := store.Upsert(ctx, Record{OriginID: "2", Name: "Rejected", Boundary: square(24, 60), Active: true})
	require.Error(t, err)
	assert.False(t, tx.aborted)

	id, created, err := store.Upsert(ctx, Record{OriginID: "3", Name: "Fine", Boundary: square(25, 60), Active: true})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, id)
	assert.Equal(t, 2, tx.savepoints)
}

func TestSyncContinuesAfterDatabaseRejection(t *testing.T) {
	ctx := context.Background()
	tx := &abortingTx{reject: "2"}

	report, err := Sync(ctx, txRepository{Store: NewStore(tx), tx: tx}, []Record{
		{OriginID: "1", Name: "Kallio", Boundary: square(24, 60), Active: true},
		{OriginID: "2", Name: "Rejected", Boundary: square(25, 60), Active: true},
		{OriginID: "3", Name: "Pasila", Boundary: square(26, 60), Active: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped())
}

var errStop = errors.New("stop")

// queryRecorder captures the query and fails it.
type queryRecorder struct {
	pgx.Tx
	sql  string
	args []any
}

func (db *queryRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.sql = sql
	db.args = args
	return nil, errStop
}

func TestYearStatsUsesLocalYear(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	db := &queryRecorder{}
	_, err = NewStore(db).YearStats(context.Background(), 2019, helsinki)
	assert.ErrorIs(t, err, errStop)
	assert.Contains(t, db.sql, "EXTRACT(YEAR FROM e.start_time AT TIME ZONE $2) = $1")
	assert.Equal(t, []any{2019, "Europe/Helsinki"}, db.args)
}
