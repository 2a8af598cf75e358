// Package mcp implements the Model Context Protocol (MCP) server for schemaprobe.
//
// The MCP server exposes three tools:
//   - run_probe: Run one probe scenario and return its summary
//   - get_report: Fetch the full report of an earlier run
//   - get_status: Endpoint, pool statistics and recent runs
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	schemaprobe serve
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Tool: run_probe
//
//	Request:
//	{
//	  "name": "run_probe",
//	  "arguments": {
//	    "scenario": "before-workaround",
//	    "preset": "small",
//	    "check_period_ms": 3000
//	  }
//	}
//
//	Response:
//	{
//	  "id": "6f1c9a7e-...",
//	  "passed": true,
//	  "scenario": "before-workaround",
//	  "classes_created": 16,
//	  "properties_created": 496,
//	  "checks_succeeded": 4,
//	  "checks_failed": 0
//	}
//
// Only one probe runs at a time; a second call while one is running fails
// with code -32002. Reports are kept in a bounded LRU history and can be
// fetched with get_report until evicted.
//
// # Error Codes
//
//	-32602: Invalid parameters
//	-32603: Internal error
//	-32002: Probe already running
//	-32003: Report not found
package mcp
