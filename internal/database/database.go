// Package database opens the RFP store and keeps its schema current.
//
// Two backends are supported and selected by URL scheme: PostgreSQL through
// pgx's database/sql driver, and SQLite through the pure-Go modernc driver
// for local development and tests.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect identifies the SQL backend behind a *sql.DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var ErrUnsupportedURL = errors.New("unsupported database url")

// DefaultPingTimeout bounds startup and health pings.
const DefaultPingTimeout = 2 * time.Second

// Parse maps a database URL to its driver name, DSN and dialect.
func Parse(rawURL string) (driver, dsn string, dialect Dialect, err error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return "pgx", rawURL, Postgres, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return "", "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return "sqlite", path + sep + "_pragma=busy_timeout(5000)", SQLite, nil
	default:
		return "", "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
}

// Open creates the connection pool. It does not contact the server; call
// Ping to verify reachability.
func Open(rawURL string) (*sql.DB, Dialect, error) {
	driver, dsn, dialect, err := Parse(rawURL)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}

	switch {
	case dialect == SQLite && isMemory(dsn):
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case dialect == SQLite:
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, dialect, nil
}

// Ping checks that the database answers within DefaultPingTimeout.
func Ping(ctx context.Context, db *sql.DB) error {
	pctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrate applies any pending embedded migrations for the dialect.
func Migrate(db *sql.DB, dialect Dialect) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var m *migrate.Migrate
	switch dialect {
	case Postgres:
		dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			return fmt.Errorf("create migration db driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	case SQLite:
		dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create migration db driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	default:
		return fmt.Errorf("migrate: unknown dialect %q", dialect)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// CaseFoldingLocale reports the server's character classification locale.
// Under "C" or "POSIX", PostgreSQL's LOWER folds ASCII only. SQLite always
// reports "unicode" because UnicodeLower is used there.
func CaseFoldingLocale(ctx context.Context, db *sql.DB, dialect Dialect) (locale string, unicode bool, err error) {
	if dialect != Postgres {
		return "unicode", true, nil
	}
	if err := db.QueryRowContext(ctx, `SELECT current_setting('lc_ctype')`).Scan(&locale); err != nil {
		return "", false, fmt.Errorf("read lc_ctype: %w", err)
	}
	switch strings.ToUpper(locale) {
	case "C", "POSIX":
		return locale, false, nil
	}
	return locale, true, nil
}
