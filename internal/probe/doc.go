// Package probe runs a background read checker against a foreground
// schema mutator on one client.
//
// The checker borrows a session every CheckPeriod and runs a trivial
// read query; the mutator defines Classes classes of PropertiesPerClass
// properties, fetching its schema handle either every iteration
// (before-workaround) or once up front (after-workaround). A run passes
// only when no check failed.
//
// Usage:
//
//	p := probe.New(client, logger)
//	report, err := p.Run(ctx, probe.DefaultOptions())
//	if err == nil {
//		err = report.Err()
//	}
package probe
