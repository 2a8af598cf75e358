package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/schemaprobe/internal/storage"
	"github.com/dshills/schemaprobe/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeProbeInProgress = -32002 // Another probe is already running
	ErrorCodeReportNotFound  = -32003 // No report under the given id
)

// handleRunProbe handles the run_probe tool invocation
func (s *Server) handleRunProbe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	scenario, err := types.ParseScenario(getStringDefault(args, "scenario", string(types.ScenarioBeforeWorkaround)))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid scenario", map[string]interface{}{
			"param":  "scenario",
			"reason": err.Error(),
		})
	}

	// Per-call overrides apply to a copy of the server configuration
	cfg := *s.cfg
	cfg.Preset = getStringDefault(args, "preset", cfg.Preset)
	cfg.Classes = getIntDefault(args, "classes", cfg.Classes)
	cfg.PropertiesPerClass = getIntDefault(args, "properties", cfg.PropertiesPerClass)
	if ms := getIntDefault(args, "check_period_ms", 0); ms != 0 {
		cfg.CheckPeriod = time.Duration(ms) * time.Millisecond
		cfg.CheckInitialDelay = cfg.CheckPeriod
	}

	opts, err := cfg.ProbeOptions(scenario)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid probe options", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeProbeInProgress, "another probe is already running", nil)
	}
	defer s.lock.Release()

	report, err := s.prober.Run(ctx, opts)
	if report == nil {
		return nil, newMCPError(ErrorCodeInternalError, "probe failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	id := uuid.NewString()
	s.history.Add(id, report)

	response := report.Summary()
	response["id"] = id
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetReport handles the get_report tool invocation
func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, ok := args["run_id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "run_id parameter is required", map[string]interface{}{
			"param":  "run_id",
			"reason": "missing or empty",
		})
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid run_id", map[string]interface{}{
			"param":  "run_id",
			"reason": err.Error(),
		})
	}

	report, ok := s.history.Get(id)
	if !ok {
		return nil, newMCPError(ErrorCodeReportNotFound, "report not found", map[string]interface{}{
			"run_id": id,
		})
	}

	response := map[string]interface{}{
		"id":     id,
		"passed": report.Passed(),
		"report": report,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.client.Stats()
	endpoint := s.client.Endpoint()
	dialect := s.client.Dialect()

	response := map[string]interface{}{
		"endpoint":      endpoint.String(),
		"endpoint_kind": string(endpoint.Kind),
		"dialect":       dialect.Name(),
		"driver":        dialect.DriverName(),
		"sqlite_driver": storage.DriverName,
		"build_mode":    storage.BuildMode,
		"pool": map[string]interface{}{
			"max_open":         stats.MaxOpen,
			"min_idle":         stats.MinIdle,
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
			"wait_ms":          stats.WaitDuration.Milliseconds(),
		},
		"known_classes": stats.KnownClasses,
		"probe_running": s.lock.Held(),
		"recent_runs":   s.history.Keys(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// arguments returns the tool arguments; a call without arguments gets
// an empty map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
