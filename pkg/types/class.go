package types

import (
	"fmt"
	"regexp"
	"strings"
)

// ClassKind represents the graph role of a schema class
type ClassKind string

const (
	KindDocument ClassKind = "document"
	KindVertex   ClassKind = "vertex"
	KindEdge     ClassKind = "edge"
)

// Base class names every graph database defines
const (
	VertexClassName = "V"
	EdgeClassName   = "E"
)

// Validate checks if the class kind is valid
func (k ClassKind) Validate() error {
	switch k {
	case KindDocument, KindVertex, KindEdge:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidClassKind, string(k))
	}
}

// BaseClass returns the superclass name for the kind, or "" for documents
func (k ClassKind) BaseClass() string {
	switch k {
	case KindVertex:
		return VertexClassName
	case KindEdge:
		return EdgeClassName
	default:
		return ""
	}
}

// PropertyType is the declared type of a class property
type PropertyType string

const (
	TypeString   PropertyType = "STRING"
	TypeInteger  PropertyType = "INTEGER"
	TypeLong     PropertyType = "LONG"
	TypeShort    PropertyType = "SHORT"
	TypeDouble   PropertyType = "DOUBLE"
	TypeFloat    PropertyType = "FLOAT"
	TypeBoolean  PropertyType = "BOOLEAN"
	TypeDatetime PropertyType = "DATETIME"
	TypeBinary   PropertyType = "BINARY"
)

var propertyTypes = []PropertyType{
	TypeString, TypeInteger, TypeLong, TypeShort, TypeDouble,
	TypeFloat, TypeBoolean, TypeDatetime, TypeBinary,
}

// ParsePropertyType parses a property type name, ignoring case
func ParsePropertyType(s string) (PropertyType, error) {
	upper := PropertyType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range propertyTypes {
		if t == upper {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPropertyType, s)
}

// ClassDef describes a class as stored in the class registry
type ClassDef struct {
	Name       string
	SuperClass string // Empty for root classes
	Kind       ClassKind
	Clusters   int
}

// Validate checks if the class definition is valid
func (c *ClassDef) Validate() error {
	if err := ValidateIdentifier(c.Name); err != nil {
		return err
	}
	if c.SuperClass != "" {
		if err := ValidateIdentifier(c.SuperClass); err != nil {
			return err
		}
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if c.Clusters < 1 {
		return ErrInvalidClusters
	}
	return nil
}

// PropertyDef describes a property as stored in the class registry
type PropertyDef struct {
	Class string
	Name  string
	Type  PropertyType
}

// MaxIdentifierLength is the longest class or property name accepted.
// It matches the PostgreSQL identifier limit, the strictest backend.
const MaxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that name is usable as a class or property name
func ValidateIdentifier(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidName, name, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
