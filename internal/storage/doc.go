// Package storage is the database client the probe drives: connection
// setup, the session pool, schema commands and the schema handle.
//
// # Endpoints
//
// Two connection-string forms are accepted:
//
//	remote:<host>[:port]   PostgreSQL (default) or MySQL, chosen by Config.Driver
//	embedded:<path>        SQLite file <path>/<database>.db
//
// # Graph Schema
//
// Classes are tables and properties are columns. Every class table carries
// the system columns _rid and _class; edge classes add _out and _in. The
// class registry (graph_class, graph_property) records superclass, kind
// and cluster count, and is bootstrapped by ApplyMigrations together with
// the base classes V and E.
//
// # Sessions
//
//	client, err := storage.Open(ctx, storage.Config{
//	    Endpoint: "embedded:/var/lib/schemaprobe",
//	    Database: "probe",
//	    PoolMin:  5,
//	    PoolMax:  100,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sess, err := client.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	rows, err := sess.Query(ctx, "SELECT @class FROM V LIMIT 20")
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// # Schema Handles
//
// Session.Schema fetches a handle holding the classes known at fetch time.
// Class values are shared client-wide, so a property created with a
// CREATE PROPERTY command is visible through every handle, but a class
// created through one handle is only visible to handles fetched later.
//
// # Build Tags
//
// Embedded endpoints use modernc.org/sqlite by default. Build with the
// sqlite_cgo tag to use github.com/mattn/go-sqlite3 instead:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
