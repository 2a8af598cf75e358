package storage

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/dshills/schemaprobe/pkg/types"
)

// Remote driver names accepted in Config.Driver
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Dialect encapsulates backend-specific SQL
type Dialect interface {
	// Name identifies the dialect ("sqlite", "mysql", "postgres")
	Name() string

	// DriverName returns the database/sql driver name
	DriverName() string

	// BuildDSN constructs the driver-specific connection string
	BuildDSN(ep Endpoint, cfg Config) (string, error)

	// QuoteIdentifier wraps a table/column name in dialect-specific quoting
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter placeholder for the n-th parameter (1-based)
	Placeholder(n int) string

	// RIDColumn returns the column definition of the record id
	RIDColumn() string

	// LinkType returns the column type of edge endpoints
	LinkType() string

	// ColumnType maps a property type to a column type
	ColumnType(t types.PropertyType) string

	// InsertIgnore returns an INSERT that silently skips duplicate keys
	InsertIgnore(table string, columns ...string) string

	// TableExistsQuery returns SQL selecting the table name; one parameter
	TableExistsQuery() string
}

// dialectFor selects the dialect for an endpoint
func dialectFor(ep Endpoint, driver string) (Dialect, error) {
	if ep.Kind == EndpointEmbedded {
		return &SQLiteDialect{}, nil
	}
	switch strings.ToLower(driver) {
	case "", DriverPostgres, "postgresql":
		return &PostgresDialect{}, nil
	case DriverMySQL:
		return &MySQLDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func placeholders(d Dialect, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// SQLiteDialect backs embedded endpoints
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return DriverName }

// BuildDSN places the database file <path>/<database>.db
func (d *SQLiteDialect) BuildDSN(ep Endpoint, cfg Config) (string, error) {
	if cfg.Database == "" {
		return "", fmt.Errorf("%w: database name is required", ErrInvalidConfig)
	}
	return sqliteDSN(filepath.Join(ep.Path, cfg.Database+".db")), nil
}

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SQLiteDialect) Placeholder(n int) string { return "?" }
func (d *SQLiteDialect) RIDColumn() string { return `"_rid" INTEGER PRIMARY KEY AUTOINCREMENT` }
func (d *SQLiteDialect) LinkType() string { return "INTEGER" }

func (d *SQLiteDialect) ColumnType(t types.PropertyType) string {
	switch t {
	case types.TypeInteger, types.TypeLong, types.TypeShort, types.TypeBoolean:
		return "INTEGER"
	case types.TypeDouble, types.TypeFloat:
		return "REAL"
	case types.TypeDatetime:
		return "TIMESTAMP"
	case types.TypeBinary:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table), quoteAll(d, columns), placeholders(d, len(columns)))
}

func (d *SQLiteDialect) TableExistsQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' AND name = ?"
}

// MySQLDialect backs remote endpoints with Driver "mysql"
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) BuildDSN(ep Endpoint, cfg Config) (string, error) {
	port := ep.Port
	if port <= 0 {
		port = 3306
	}

	mc := mysqldriver.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", ep.Host, port)
	mc.DBName = cfg.Database
	mc.AllowNativePasswords = true
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}

	switch strings.ToLower(cfg.SSLMode) {
	case "true", "required", "require":
		mc.TLSConfig = "true"
	case "skip-verify", "preferred":
		mc.TLSConfig = "skip-verify"
	case "false", "disable", "":
		mc.TLSConfig = "false"
	default:
		mc.TLSConfig = cfg.SSLMode
	}

	return mc.FormatDSN(), nil
}

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MySQLDialect) Placeholder(n int) string { return "?" }
func (d *MySQLDialect) RIDColumn() string { return "`_rid` BIGINT AUTO_INCREMENT PRIMARY KEY" }
func (d *MySQLDialect) LinkType() string { return "BIGINT" }

func (d *MySQLDialect) ColumnType(t types.PropertyType) string {
	switch t {
	case types.TypeInteger:
		return "INT"
	case types.TypeLong:
		return "BIGINT"
	case types.TypeShort:
		return "SMALLINT"
	case types.TypeDouble:
		return "DOUBLE"
	case types.TypeFloat:
		return "FLOAT"
	case types.TypeBoolean:
		return "BOOLEAN"
	case types.TypeDatetime:
		return "DATETIME(6)"
	case types.TypeBinary:
		return "LONGBLOB"
	default:
		return "TEXT"
	}
}

func (d *MySQLDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table), quoteAll(d, columns), placeholders(d, len(columns)))
}

func (d *MySQLDialect) TableExistsQuery() string {
	return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
}

// PostgresDialect backs remote endpoints with Driver "postgres"
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) BuildDSN(ep Endpoint, cfg Config) (string, error) {
	port := ep.Port
	if port <= 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		fmt.Sprintf("host=%s", ep.Host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("user=%s", pqValue(cfg.User)),
		fmt.Sprintf("password=%s", pqValue(cfg.Password)),
		fmt.Sprintf("dbname=%s", pqValue(cfg.Database)),
		fmt.Sprintf("sslmode=%s", sslMode),
	}
	if cfg.ConnectTimeout > 0 {
		secs := int(cfg.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		parts = append(parts, "connect_timeout="+strconv.Itoa(secs))
	}

	return strings.Join(parts, " "), nil
}

// pqValue quotes a keyword/value connection parameter when needed
func pqValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (d *PostgresDialect) RIDColumn() string { return `"_rid" BIGSERIAL PRIMARY KEY` }
func (d *PostgresDialect) LinkType() string { return "BIGINT" }

func (d *PostgresDialect) ColumnType(t types.PropertyType) string {
	switch t {
	case types.TypeInteger:
		return "INTEGER"
	case types.TypeLong:
		return "BIGINT"
	case types.TypeShort:
		return "SMALLINT"
	case types.TypeDouble:
		return "DOUBLE PRECISION"
	case types.TypeFloat:
		return "REAL"
	case types.TypeBoolean:
		return "BOOLEAN"
	case types.TypeDatetime:
		return "TIMESTAMP"
	case types.TypeBinary:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		d.QuoteIdentifier(table), quoteAll(d, columns), placeholders(d, len(columns)))
}

func (d *PostgresDialect) TableExistsQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}
