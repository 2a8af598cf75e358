package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/schemaprobe/internal/command"
	"github.com/dshills/schemaprobe/pkg/types"
)

// Client is a connection handle bound to one database endpoint and
// credential pair. It owns the session pool and the shared schema cache.
type Client struct {
	cfg      Config
	endpoint Endpoint
	dialect  Dialect
	dsn      string
	pool     *sql.DB
	cache    *schemaCache
	log      logr.Logger
	closed   atomic.Bool
}

// Open connects to the configured endpoint, applies the registry
// migrations, warms PoolMin sessions and loads the schema cache
func Open(ctx context.Context, cfg Config, logger logr.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.PoolMin > cfg.PoolMax {
		return nil, fmt.Errorf("%w: pool min %d exceeds pool max %d", ErrInvalidConfig, cfg.PoolMin, cfg.PoolMax)
	}

	ep, err := ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	dialect, err := dialectFor(ep, cfg.Driver)
	if err != nil {
		return nil, err
	}

	if ep.Kind == EndpointEmbedded {
		if err := os.MkdirAll(ep.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn, err := dialect.BuildDSN(ep, cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := openPool(ctx, dialect.DriverName(), dsn, cfg.PoolMax, cfg.PoolMin)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ep, err)
	}
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := &Client{
		cfg:      cfg,
		endpoint: ep,
		dialect:  dialect,
		dsn:      dsn,
		pool:     pool,
		cache:    newSchemaCache(),
		log:      logger.WithName("storage").WithValues("endpoint", ep.String(), "database", cfg.Database),
	}

	if err := ApplyMigrations(ctx, pool, dialect); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	c.log.V(1).Info("registry migrated", "version", CurrentSchemaVersion, "dialect", dialect.Name())

	if err := c.warm(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to warm pool: %w", err)
	}

	if _, err := c.refresh(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, err
	}

	c.log.V(1).Info("connected", "poolMin", cfg.PoolMin, "poolMax", cfg.PoolMax, "classes", c.cache.len())
	return c, nil
}

// openPool opens a database/sql pool and verifies connectivity
func openPool(ctx context.Context, driver, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// database/sql keeps no idle connections at zero, so at least one
	// borrowed session always returns to the pool
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(maxIdle, 1))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// warm opens PoolMin connections concurrently and returns them to the
// pool, so the first checks find idle sessions
func (c *Client) warm(ctx context.Context) error {
	if c.cfg.PoolMin == 0 {
		return nil
	}

	conns := make([]*sql.Conn, c.cfg.PoolMin)
	g, gctx := errgroup.WithContext(ctx)
	for i := range conns {
		g.Go(func() error {
			conn, err := c.pool.Conn(gctx)
			if err != nil {
				return err
			}
			conns[i] = conn
			return conn.PingContext(gctx)
		})
	}
	err := g.Wait()

	for _, conn := range conns {
		if conn != nil {
			_ = conn.Close()
		}
	}
	return err
}

// Endpoint returns the parsed endpoint
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Dialect returns the backend dialect
func (c *Client) Dialect() Dialect { return c.dialect }

// Acquire borrows a session from the pool
func (c *Client) Acquire(ctx context.Context) (Session, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	conn, err := c.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	return &sqlSession{client: c, conn: conn}, nil
}

// OpenSession opens a dedicated session outside the pool. Closing the
// session closes its connection.
func (c *Client) OpenSession(ctx context.Context) (Session, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	db, err := openPool(ctx, c.dialect.DriverName(), c.dsn, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &sqlSession{client: c, conn: conn, db: db}, nil
}

// Stats reports pool statistics
func (c *Client) Stats() PoolStats {
	s := c.pool.Stats()
	return PoolStats{
		Endpoint:        c.endpoint.String(),
		Dialect:         c.dialect.Name(),
		MaxOpen:         s.MaxOpenConnections,
		MinIdle:         c.cfg.PoolMin,
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration,
		KnownClasses:    c.cache.len(),
	}
}

// Close releases the pool. Sessions acquired afterwards fail with
// ErrDisconnected.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.pool.Close()
}

// refresh reloads the registry into the shared cache
func (c *Client) refresh(ctx context.Context, q querier) (map[string]*Class, error) {
	defs, props, err := loadRegistry(ctx, q, c.dialect)
	if err != nil {
		return nil, err
	}
	return c.cache.merge(defs, props), nil
}

// lookupClass returns a cached class, reloading the registry once on a miss
func (c *Client) lookupClass(ctx context.Context, q querier, name string) (*Class, error) {
	if cls := c.cache.get(name); cls != nil {
		return cls, nil
	}
	if _, err := c.refresh(ctx, q); err != nil {
		return nil, err
	}
	if cls := c.cache.get(name); cls != nil {
		return cls, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

// createClass creates the backing table and registers the class
func (c *Client) createClass(ctx context.Context, q querier, name string, clusters int, super *Class) (*Class, error) {
	if clusters <= 0 {
		clusters = 1
	}
	def := types.ClassDef{Name: name, Kind: types.KindDocument, Clusters: clusters}
	if super != nil {
		def.SuperClass = super.Name()
		def.Kind = super.Kind()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	exists, err := registryHas(ctx, q, c.dialect, classTable, map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to check class %s: %w", name, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrClassExists, name)
	}

	if _, err := q.ExecContext(ctx, classTableDDL(c.dialect, name, def.Kind, super)); err != nil {
		return nil, fmt.Errorf("failed to create class %s: %w", name, err)
	}

	var superName interface{}
	if def.SuperClass != "" {
		superName = def.SuperClass
	}
	insert := c.dialect.InsertIgnore(classTable, "name", "super_class", "kind", "clusters")
	if _, err := q.ExecContext(ctx, insert, def.Name, superName, string(def.Kind), def.Clusters); err != nil {
		return nil, fmt.Errorf("failed to register class %s: %w", name, err)
	}

	return c.cache.add(def, super), nil
}

// createProperty adds the backing column and registers the property
func (c *Client) createProperty(ctx context.Context, q querier, stmt *command.CreateProperty) error {
	cls, err := c.lookupClass(ctx, q, stmt.Class)
	if err != nil {
		return err
	}
	qualified := types.QualifiedName(stmt.Class, stmt.Name)
	if cls.ExistsProperty(stmt.Name) {
		return fmt.Errorf("%w: %s", ErrPropertyExists, qualified)
	}

	exists, err := registryHas(ctx, q, c.dialect, propertyTable, map[string]string{
		"class_name": stmt.Class,
		"name":       stmt.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to check property %s: %w", qualified, err)
	}
	if exists {
		cls.addProperty(stmt.Name, stmt.Type)
		return fmt.Errorf("%w: %s", ErrPropertyExists, qualified)
	}

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		c.dialect.QuoteIdentifier(stmt.Class), c.dialect.QuoteIdentifier(stmt.Name), c.dialect.ColumnType(stmt.Type))
	if _, err := q.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("failed to create property %s: %w", qualified, err)
	}

	insert := c.dialect.InsertIgnore(propertyTable, "class_name", "name", "prop_type")
	if _, err := q.ExecContext(ctx, insert, stmt.Class, stmt.Name, string(stmt.Type)); err != nil {
		return fmt.Errorf("failed to register property %s: %w", qualified, err)
	}

	cls.addProperty(stmt.Name, stmt.Type)
	return nil
}
