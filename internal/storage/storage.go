package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrDisconnected is returned by a client after Close
	ErrDisconnected = errors.New("disconnected")
	// ErrUnsupportedEndpoint is returned for connection strings other than remote:/embedded:
	ErrUnsupportedEndpoint = errors.New("unsupported endpoint")
	// ErrInvalidEndpoint is returned for malformed remote:/embedded: strings
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrUnsupportedDriver is returned for unknown remote drivers
	ErrUnsupportedDriver = errors.New("unsupported driver")
	// ErrInvalidConfig is returned for inconsistent pool or credential settings
	ErrInvalidConfig = errors.New("invalid storage config")
	// ErrClassExists is returned when creating a class the schema already knows
	ErrClassExists = errors.New("class already exists")
	// ErrClassNotFound is returned when a command names an unknown class
	ErrClassNotFound = errors.New("class not found")
	// ErrPropertyExists is returned when creating a property twice
	ErrPropertyExists = errors.New("property already exists")
	// ErrNotAQuery is returned when Query is given a schema command
	ErrNotAQuery = errors.New("not a query")
	// ErrSessionClosed is returned when a closed session is used
	ErrSessionClosed = errors.New("session closed")
)

// Session is a connection-level handle borrowed from a Client.
// A Session is not safe for concurrent use; Close returns it to the pool.
type Session interface {
	// Query runs a read query. The result set must be closed.
	Query(ctx context.Context, query string) (ResultSet, error)

	// Command executes a schema command or a query whose rows are discarded
	Command(ctx context.Context, command string) error

	// Schema fetches a fresh schema handle
	Schema(ctx context.Context) (*Schema, error)

	// Close releases the session
	Close() error
}

// ResultSet is a query cursor; *sql.Rows satisfies it
type ResultSet interface {
	Next() bool
	Err() error
	Close() error
}

// Config contains connection and pool settings for a Client
type Config struct {
	Endpoint        string        // remote:<host>[:port] or embedded:<path>
	Driver          string        // Remote driver: postgres (default) or mysql
	Database        string        // Database name; file name for embedded endpoints
	User            string        // Ignored for embedded endpoints
	Password        string        // Ignored for embedded endpoints
	PoolMin         int           // Sessions opened eagerly and kept idle
	PoolMax         int           // Upper bound on open sessions
	ConnMaxLifetime time.Duration // Zero keeps connections forever
	ConnectTimeout  time.Duration // Bound on opening the pool
	SSLMode         string        // Remote only
}

// Default pool bounds
const (
	DefaultPoolMin = 5
	DefaultPoolMax = 100
)

func (c Config) withDefaults() Config {
	if c.PoolMax <= 0 {
		c.PoolMax = DefaultPoolMax
	}
	if c.PoolMin < 0 {
		c.PoolMin = 0
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	return c
}

// PoolStats reports pool and schema cache statistics
type PoolStats struct {
	Endpoint        string
	Dialect         string
	MaxOpen         int
	MinIdle         int
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration
	KnownClasses    int
}

// querier is an interface that *sql.DB, *sql.Conn and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
