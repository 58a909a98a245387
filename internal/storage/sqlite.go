package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/metrics"
	"github.com/thisdougb/techtrends/internal/session"
)

// Accessor opens one SQLite connection per call. There is no pool: every
// repository operation gets a fresh connection and releases it on return.
type Accessor struct {
	path   string
	driver string
	open   func(driverName, dsn string) (*sql.DB, error)
}

// NewAccessor creates an accessor for the configured store file
func NewAccessor(cfg *Config) *Accessor {
	return &Accessor{
		path:   cfg.DBPath,
		driver: cfg.Driver,
		open:   sql.Open,
	}
}

// Open checks the store file exists and connects to it, recording the
// outcome on the tracker. The caller owns the returned connection.
func (a *Accessor) Open(ctx context.Context, tr *session.Tracker) (*bun.DB, error) {

	if _, err := os.Stat(a.path); err != nil {
		tr.SetDBState(StateMissing)
		metrics.DBUnavailable()
		config.LogError(ctx, StateMissing)
		return nil, ErrUnavailable
	}
	tr.SetDBState(StateInitialized)

	db, err := a.open(a.driver, readWriteDSN(a.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection, one statement
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	tr.RecordConnection()
	metrics.DBConnectionOpened()

	return bun.NewDB(db, sqlitedialect.New()), nil
}

// WithConn runs fn on a fresh connection and closes it on every exit path.
func (a *Accessor) WithConn(ctx context.Context, tr *session.Tracker, fn func(ctx context.Context, db bun.IDB) error) error {

	db, err := a.Open(ctx, tr)
	if err != nil {
		return err
	}
	defer db.Close()

	start := time.Now()
	defer func() { metrics.ObserveQuery(time.Since(start)) }()

	return fn(ctx, db)
}

// Probe opens and immediately releases a connection.
func (a *Accessor) Probe(ctx context.Context, tr *session.Tracker) error {
	return a.WithConn(ctx, tr, func(context.Context, bun.IDB) error { return nil })
}

// readWriteDSN never lets the driver create a missing file behind our back
func readWriteDSN(path string) string {
	return fileDSN(path, "rw")
}

// fileDSN builds a SQLite URI for path. The path is escaped, so '%', '#'
// and '?' in a file name reach SQLite as part of the name.
func fileDSN(path, mode string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true, // file:name, not file://name
		RawQuery: "mode=" + mode,
	}
	return u.String()
}
