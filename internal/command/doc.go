// Package command parses the schema commands and read queries the probe
// sends to a session.
//
// Supported statements:
//
//	CREATE CLASS <name> [EXTENDS <super>] [CLUSTERS <n>]
//	CREATE PROPERTY <class>.<property> <TYPE> [UNSAFE]
//	SELECT ...
//
// SELECT statements are passed through to the backend after Rewrite maps
// the record attributes @rid and @class onto the _rid and _class system
// columns and quotes the FROM target.
package command
