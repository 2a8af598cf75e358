// Package types provides shared type definitions for schemaprobe.
//
// It holds the vocabulary shared by the storage layer, the probe and the
// MCP server: class kinds and property types, the two probe scenarios,
// run ids and the naming scheme for generated classes and properties.
//
// # Naming
//
// Every probe run derives a RunID from the wall clock, and every generated
// name embeds it so that repeated runs against the same database never
// collide:
//
//	run := types.NewRunID(time.Now())
//	types.ClassName(run, 60)    // "TestClass_1729180000000_60"
//	types.PropertyName(run, 0)  // "prop_1729180000000_0"
//
// # Edge Partition
//
// Classes are split between edge and vertex classes by their zero-based
// remaining count: remaining%31 < 7 defines an edge class. Over a full
// cycle that is 7 edge classes for every 24 vertex classes.
package types
