package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelationMissing = errors.New(`relation "schema_migrations" does not exist`)

// countingMigrate fails the first failures calls, then delegates to Migrate.
func countingMigrate(failures int, calls *int) func(*sql.DB, Dialect) error {
	return func(db *sql.DB, d Dialect) error {
		*calls++
		if *calls <= failures {
			return errRelationMissing
		}
		return Migrate(db, d)
	}
}

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_PingAppliesSchemaOnce(t *testing.T) {
	db := openMemory(t)
	calls := 0
	store := NewStore(db, SQLite, nil)
	store.migrate = countingMigrate(0, &calls)

	assert.False(t, store.Ready())
	require.NoError(t, store.PingContext(context.Background()))
	require.NoError(t, store.PingContext(context.Background()))
	assert.True(t, store.Ready())
	assert.Equal(t, 1, calls)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM rfps`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestStore_MigrationFailureKeepsStoreNotReady(t *testing.T) {
	db := openMemory(t)
	calls := 0
	store := NewStore(db, SQLite, nil)
	store.migrate = countingMigrate(1, &calls)

	err := store.PingContext(context.Background())
	assert.ErrorIs(t, err, errRelationMissing)
	assert.False(t, store.Ready())

	require.NoError(t, store.PingContext(context.Background()))
	assert.True(t, store.Ready())
	assert.Equal(t, 2, calls)
}

func TestStore_UnreachableSkipsMigration(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	calls := 0
	store := NewStore(db, Postgres, nil)
	store.migrate = countingMigrate(0, &calls)

	assert.Error(t, store.PingContext(context.Background()))
	assert.Equal(t, 0, calls)
	assert.False(t, store.Ready())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WaitReadyRetries(t *testing.T) {
	db := openMemory(t)
	calls := 0
	store := NewStore(db, SQLite, nil)
	store.migrate = countingMigrate(2, &calls)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, store.WaitReady(ctx, time.Millisecond))
	assert.Equal(t, 3, calls)
	assert.True(t, store.Ready())
}

func TestStore_WaitReadyStopsWithContext(t *testing.T) {
	db := openMemory(t)
	calls := 0
	store := NewStore(db, SQLite, nil)
	store.migrate = countingMigrate(1<<30, &calls)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := store.WaitReady(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, store.Ready())
}

func TestCaseFoldingLocale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("current_setting").WillReturnRows(sqlmock.NewRows([]string{"lc_ctype"}).AddRow("C"))
	mock.ExpectQuery("current_setting").WillReturnRows(sqlmock.NewRows([]string{"lc_ctype"}).AddRow("en_US.UTF-8"))

	locale, unicode, err := CaseFoldingLocale(context.Background(), db, Postgres)
	require.NoError(t, err)
	assert.Equal(t, "C", locale)
	assert.False(t, unicode)

	_, unicode, err = CaseFoldingLocale(context.Background(), db, Postgres)
	require.NoError(t, err)
	assert.True(t, unicode)

	_, unicode, err = CaseFoldingLocale(context.Background(), db, SQLite)
	require.NoError(t, err)
	assert.True(t, unicode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnicodeLower(t *testing.T) {
	db := openMemory(t)

	tests := map[string]string{
		"ÉCOLE Renovation": "école renovation",
		"ΑΘΗΝΑ":            "αθηνα",
		"Straße":           "straße",
		"ASCII Only":       "ascii only",
	}
	for in, want := range tests {
		var got string
		require.NoError(t, db.QueryRow(`SELECT `+UnicodeLower+`($1)`, in).Scan(&got))
		assert.Equal(t, want, got, in)
	}

	var null sql.NullString
	require.NoError(t, db.QueryRow(`SELECT `+UnicodeLower+`(NULL)`).Scan(&null))
	assert.False(t, null.Valid)

	assert.Equal(t, "LOWER", Postgres.LowerFunc())
	assert.Equal(t, UnicodeLower, SQLite.LowerFunc())
}
