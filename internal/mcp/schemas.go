package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/schemaprobe/internal/probe"
	"github.com/dshills/schemaprobe/pkg/types"
)

// runProbeTool returns the tool definition for run_probe
func runProbeTool() mcp.Tool {
	scenarios := make([]string, 0, 2)
	for _, s := range types.AllScenarios() {
		scenarios = append(scenarios, string(s))
	}

	return mcp.Tool{
		Name:        "run_probe",
		Description: "Run the schema mutation probe: define classes and properties while a background checker queries through the pool",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "When the mutator fetches its schema handle: every class (before-workaround) or once (after-workaround)",
					"enum":        scenarios,
					"default":     string(types.ScenarioBeforeWorkaround),
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Run size: default (61 classes x 31 properties) or small (16 x 31)",
					"enum":        []string{probe.PresetDefault, probe.PresetSmall},
				},
				"classes": map[string]interface{}{
					"type":        "integer",
					"description": "Number of classes to define (overrides the preset)",
					"minimum":     1,
				},
				"properties": map[string]interface{}{
					"type":        "integer",
					"description": "Properties per class (overrides the preset)",
					"minimum":     0,
				},
				"check_period_ms": map[string]interface{}{
					"type":        "integer",
					"description": "Milliseconds between background checks",
					"minimum":     1,
				},
			},
		},
	}
}

// getReportTool returns the tool definition for get_report
func getReportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_report",
		Description: "Fetch the full report of a previous probe run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Report id returned by run_probe",
				},
			},
			Required: []string{"run_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the database endpoint, pool statistics and recent probe runs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
