package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// InMemorySQLitePath selects a process-local SQLite database.
const InMemorySQLitePath = ":memory:"

// Config selects and configures a backend.
type Config struct {
	Driver Driver

	// URL is the PostgreSQL connection string.
	URL string

	// SQLitePath is the SQLite database file, or InMemorySQLitePath.
	// Defaults to ~/.beaver/router.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Opener opens a Connection for a backend.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a backend available to NewConnection. Backend packages call
// it from init, so importing them for side effects is enough.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens a connection on cfg.Driver.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	openersMu.RLock()
	open, ok := openers[cfg.Driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q (is the backend package imported?)", cfg.Driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns ~/.beaver/router.db.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".beaver", "router.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
