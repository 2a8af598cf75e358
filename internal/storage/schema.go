package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/schemaprobe/internal/command"
	"github.com/dshills/schemaprobe/pkg/types"
)

// Class is a schema class. Class values are shared by every schema handle
// of a Client, so properties created through any session are visible here.
type Class struct {
	name     string
	kind     types.ClassKind
	clusters int

	mu         sync.RWMutex
	superName  string
	superClass *Class
	props      map[string]types.PropertyType
}

func newClass(def types.ClassDef) *Class {
	return &Class{
		name:      def.Name,
		kind:      def.Kind,
		clusters:  def.Clusters,
		superName: def.SuperClass,
		props:     make(map[string]types.PropertyType),
	}
}

func (c *Class) Name() string { return c.name }
func (c *Class) Kind() types.ClassKind { return c.kind }
func (c *Class) Clusters() int { return c.clusters }

// SuperClass returns the superclass name, or "" for root classes
func (c *Class) SuperClass() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.superName
}

// IsSubClassOf reports whether the class is name or inherits from it
func (c *Class) IsSubClassOf(name string) bool {
	for cur := c; cur != nil; cur = cur.parent() {
		if cur.name == name {
			return true
		}
	}
	return false
}

func (c *Class) parent() *Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.superClass
}

// ExistsProperty reports whether the class or one of its superclasses
// declares the property
func (c *Class) ExistsProperty(name string) bool {
	_, ok := c.Property(name)
	return ok
}

// Property returns the declared type of a property, searching superclasses
func (c *Class) Property(name string) (types.PropertyType, bool) {
	for cur := c; cur != nil; cur = cur.parent() {
		cur.mu.RLock()
		t, ok := cur.props[name]
		cur.mu.RUnlock()
		if ok {
			return t, true
		}
	}
	return "", false
}

// Properties returns declared and inherited properties sorted by name
func (c *Class) Properties() []types.PropertyDef {
	seen := make(map[string]bool)
	var defs []types.PropertyDef
	for cur := c; cur != nil; cur = cur.parent() {
		cur.mu.RLock()
		for name, t := range cur.props {
			if !seen[name] {
				seen[name] = true
				defs = append(defs, types.PropertyDef{Class: cur.name, Name: name, Type: t})
			}
		}
		cur.mu.RUnlock()
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (c *Class) addProperty(name string, t types.PropertyType) {
	c.mu.Lock()
	c.props[name] = t
	c.mu.Unlock()
}

// schemaCache is the client-wide view of the class registry
type schemaCache struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func newSchemaCache() *schemaCache {
	return &schemaCache{classes: make(map[string]*Class)}
}

func (sc *schemaCache) get(name string) *Class {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.classes[name]
}

func (sc *schemaCache) len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.classes)
}

// add registers a class, returning the existing value if one is cached
func (sc *schemaCache) add(def types.ClassDef, super *Class) *Class {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.classes[def.Name]; ok {
		return existing
	}
	cls := newClass(def)
	cls.superClass = super
	sc.classes[def.Name] = cls
	return cls
}

// merge folds registry rows into the cache and returns a snapshot
func (sc *schemaCache) merge(defs []types.ClassDef, props []types.PropertyDef) map[string]*Class {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for _, def := range defs {
		if _, ok := sc.classes[def.Name]; !ok {
			sc.classes[def.Name] = newClass(def)
		}
	}
	for _, cls := range sc.classes {
		cls.mu.Lock()
		if cls.superClass == nil && cls.superName != "" {
			cls.superClass = sc.classes[cls.superName]
		}
		cls.mu.Unlock()
	}
	for _, p := range props {
		if cls, ok := sc.classes[p.Class]; ok {
			cls.addProperty(p.Name, p.Type)
		}
	}

	snapshot := make(map[string]*Class, len(sc.classes))
	for name, cls := range sc.classes {
		snapshot[name] = cls
	}
	return snapshot
}

// Schema is a schema handle: the set of classes known when it was fetched,
// plus the classes created through it. A handle does not observe classes
// created through other handles until it is fetched again.
type Schema struct {
	client    *Client
	q         querier
	fetchedAt time.Time

	mu      sync.RWMutex
	classes map[string]*Class
}

// FetchedAt returns when the handle was fetched
func (s *Schema) FetchedAt() time.Time { return s.fetchedAt }

// GetClass returns the class, or nil if this handle does not know it
func (s *Schema) GetClass(name string) *Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classes[name]
}

// ExistsClass reports whether this handle knows the class
func (s *Schema) ExistsClass(name string) bool {
	return s.GetClass(name) != nil
}

// Classes returns the known classes sorted by name
func (s *Schema) Classes() []*Class {
	s.mu.RLock()
	out := make([]*Class, 0, len(s.classes))
	for _, cls := range s.classes {
		out = append(out, cls)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// CreateClass creates a class with the given cluster count under super.
// A nil super creates a root document class.
func (s *Schema) CreateClass(ctx context.Context, name string, clusters int, super *Class) (*Class, error) {
	if s.ExistsClass(name) {
		return nil, fmt.Errorf("%w: %s", ErrClassExists, name)
	}

	cls, err := s.client.createClass(ctx, s.q, name, clusters, super)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.classes[name] = cls
	s.mu.Unlock()
	return cls, nil
}

// classTableDDL returns the CREATE TABLE statement backing a class
func classTableDDL(d Dialect, name string, kind types.ClassKind, super *Class) string {
	q := d.QuoteIdentifier
	cols := []string{
		d.RIDColumn(),
		q(command.ClassColumn) + " VARCHAR(190)",
	}
	if kind == types.KindEdge {
		cols = append(cols, q("_out")+" "+d.LinkType(), q("_in")+" "+d.LinkType())
	}
	if super != nil {
		for _, p := range super.Properties() {
			cols = append(cols, q(p.Name)+" "+d.ColumnType(p.Type))
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", q(name), strings.Join(cols, ",\n    "))
}

// loadRegistry reads every registered class and property
func loadRegistry(ctx context.Context, q querier, d Dialect) ([]types.ClassDef, []types.PropertyDef, error) {
	qi := d.QuoteIdentifier

	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s",
		qi("name"), qi("super_class"), qi("kind"), qi("clusters"), qi(classTable)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load classes: %w", err)
	}
	var defs []types.ClassDef
	for rows.Next() {
		var def types.ClassDef
		var super sql.NullString
		var kind string
		if err := rows.Scan(&def.Name, &super, &kind, &def.Clusters); err != nil {
			_ = rows.Close()
			return nil, nil, err
		}
		def.SuperClass = super.String
		def.Kind = types.ClassKind(kind)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, nil, err
	}
	_ = rows.Close()

	rows, err = q.QueryContext(ctx, fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		qi("class_name"), qi("name"), qi("prop_type"), qi(propertyTable)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load properties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var props []types.PropertyDef
	for rows.Next() {
		var p types.PropertyDef
		var t string
		if err := rows.Scan(&p.Class, &p.Name, &t); err != nil {
			return nil, nil, err
		}
		p.Type = types.PropertyType(t)
		props = append(props, p)
	}
	return defs, props, rows.Err()
}

// registryHas reports whether a row matching all key columns exists
func registryHas(ctx context.Context, q querier, d Dialect, table string, keys map[string]string) (bool, error) {
	cols := make([]string, 0, len(keys))
	for col := range keys {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(col), d.Placeholder(i+1))
		args[i] = keys[col]
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s", d.QuoteIdentifier(table), strings.Join(conds, " AND "))

	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
