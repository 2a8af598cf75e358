package config

import (
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// NewLogger returns a logger writing to stderr; stdout is reserved for
// the MCP protocol. Verbosity above zero enables pool and migration
// detail.
func NewLogger(verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds), stdr.Options{
		LogCaller: stdr.None,
	}).WithName("schemaprobe")
}

// Logger returns the logger for this configuration
func (c *Config) Logger() logr.Logger {
	return NewLogger(c.LogVerbosity)
}
