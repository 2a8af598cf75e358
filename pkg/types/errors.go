package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrInvalidName         = errors.New("invalid identifier")
	ErrInvalidClassKind    = errors.New("invalid class kind")
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidClusters     = errors.New("clusters must be >= 1")
	ErrInvalidScenario     = errors.New("invalid scenario")
)
