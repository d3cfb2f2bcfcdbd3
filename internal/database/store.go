package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryInterval paces WaitReady while the store is unavailable.
const DefaultRetryInterval = 5 * time.Second

// Store wraps the pool and applies the schema the first time the database
// answers. Until then PingContext fails, so health checks stay degraded while
// the rfps table may not exist yet.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     *zap.Logger
	migrate func(*sql.DB, Dialect) error

	mu    sync.Mutex
	ready atomic.Bool
}

func NewStore(db *sql.DB, dialect Dialect, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, log: log, migrate: Migrate}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

// Ready reports whether the schema has been applied.
func (s *Store) Ready() bool { return s.ready.Load() }

// PingContext checks reachability and, on the first success, applies
// pending migrations. It fails while either step fails.
func (s *Store) PingContext(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	return s.ensureSchema(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return nil
	}

	if err := s.migrate(s.db, s.dialect); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.ready.Store(true)

	fields := []zap.Field{zap.String("dialect", string(s.dialect))}
	if locale, unicode, err := CaseFoldingLocale(ctx, s.db, s.dialect); err != nil {
		s.log.Warn("could not read database locale", append(fields, zap.Error(err))...)
	} else if !unicode {
		s.log.Warn("database locale folds ASCII only; non-ASCII searches are case-sensitive",
			append(fields, zap.String("lc_ctype", locale))...)
	}
	s.log.Info("database ready", fields...)
	return nil
}

// WaitReady retries PingContext every interval until the schema is applied
// or ctx is done.
func (s *Store) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		err := s.PingContext(pctx)
		cancel()
		if err == nil {
			return nil
		}
		s.log.Warn("database not ready, retrying",
			zap.String("dialect", string(s.dialect)),
			zap.Duration("retry_in", interval),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
