package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/dshills/schemaprobe/pkg/types"
)

const (
	// CurrentSchemaVersion tracks the registry schema version
	CurrentSchemaVersion = "1.0.0"
)

// Registry table names
const (
	versionTable  = "probe_schema_version"
	classTable    = "graph_class"
	propertyTable = "graph_property"
)

// Migration represents a registry schema migration. Statements are run one
// at a time because not every driver accepts multi-statement strings.
type Migration struct {
	Version string
	Up      func(d Dialect) []string
	Down    func(d Dialect) []string
}

// AllMigrations contains all registry migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

func migrationV1Up(d Dialect) []string {
	q := d.QuoteIdentifier
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s VARCHAR(190) NOT NULL PRIMARY KEY,
    %s VARCHAR(190),
    %s VARCHAR(16) NOT NULL,
    %s INTEGER NOT NULL,
    %s TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, q(classTable), q("name"), q("super_class"), q("kind"), q("clusters"), q("created_at")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s VARCHAR(190) NOT NULL,
    %s VARCHAR(190) NOT NULL,
    %s VARCHAR(16) NOT NULL,
    %s TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (%s, %s)
)`, q(propertyTable), q("class_name"), q("name"), q("prop_type"), q("created_at"), q("class_name"), q("name")),

		classTableDDL(d, types.VertexClassName, types.KindVertex, nil),
		classTableDDL(d, types.EdgeClassName, types.KindEdge, nil),
	}
}

func migrationV1Down(d Dialect) []string {
	q := d.QuoteIdentifier
	return []string{
		"DROP TABLE IF EXISTS " + q(types.EdgeClassName),
		"DROP TABLE IF EXISTS " + q(types.VertexClassName),
		"DROP TABLE IF EXISTS " + q(propertyTable),
		"DROP TABLE IF EXISTS " + q(classTable),
	}
}

// baseClasses are registered by the first migration
var baseClasses = []types.ClassDef{
	{Name: types.VertexClassName, Kind: types.KindVertex, Clusters: 1},
	{Name: types.EdgeClassName, Kind: types.KindEdge, Clusters: 1},
}

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := ensureVersionTable(ctx, db, d); err != nil {
		return err
	}

	currentVersion, err := currentSchemaVersion(ctx, db, d)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		// Skip if already applied
		if !currentVersion.LessThan(migrationVersion) {
			continue
		}

		for _, stmt := range migration.Up(d) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
			}
		}

		if migration.Version == "1.0.0" {
			if err := registerBaseClasses(ctx, db, d); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
			}
		}

		_, err = db.ExecContext(ctx, d.InsertIgnore(versionTable, "version"), migration.Version)
		if err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB, d Dialect) error {
	currentVersion, err := currentSchemaVersion(ctx, db, d)
	if err != nil {
		return err
	}
	if currentVersion.Equal(semver.MustParse("0.0.0")) {
		return errors.New("no migrations to rollback")
	}

	var migration *Migration
	for i := range AllMigrations {
		v, err := semver.NewVersion(AllMigrations[i].Version)
		if err == nil && v.Equal(currentVersion) {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	for _, stmt := range migration.Down(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", migration.Version, err)
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.QuoteIdentifier(versionTable), d.QuoteIdentifier("version"), d.Placeholder(1))
	if _, err := db.ExecContext(ctx, query, migration.Version); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", migration.Version, err)
	}

	return nil
}

func ensureVersionTable(ctx context.Context, db *sql.DB, d Dialect) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s VARCHAR(32) NOT NULL PRIMARY KEY,
    %s TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, d.QuoteIdentifier(versionTable), d.QuoteIdentifier("version"), d.QuoteIdentifier("applied_at"))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", versionTable, err)
	}
	return nil
}

// currentSchemaVersion returns the highest applied version, or 0.0.0
func currentSchemaVersion(ctx context.Context, db *sql.DB, d Dialect) (*semver.Version, error) {
	current := semver.MustParse("0.0.0")

	var tableName string
	err := db.QueryRowContext(ctx, d.TableExistsQuery(), versionTable).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return current, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check %s table: %w", versionTable, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s",
		d.QuoteIdentifier("version"), d.QuoteIdentifier(versionTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", versionTable, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid current schema version %s: %w", s, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, rows.Err()
}

func registerBaseClasses(ctx context.Context, db *sql.DB, d Dialect) error {
	insert := d.InsertIgnore(classTable, "name", "super_class", "kind", "clusters")
	for _, def := range baseClasses {
		if _, err := db.ExecContext(ctx, insert, def.Name, nil, string(def.Kind), def.Clusters); err != nil {
			return fmt.Errorf("failed to register class %s: %w", def.Name, err)
		}
	}
	return nil
}
