// Package preflight checks that sitesearch can run on this machine: the
// configuration loads, the log and stats locations are writable, there is
// disk space for them and every text analyzer is registered.
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithConfigDir("."))
//	results := checker.RunAll(ctx)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
