package run_worker

import "fmt"

// ReferenceError means the monitor points at a test that no longer exists.
// The run stops before anything is executed or written.
type ReferenceError struct {
	MonitorID string
	TestID    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("monitor %s references missing test %q", e.MonitorID, e.TestID)
}
