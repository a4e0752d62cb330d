package secrets

import (
	"fmt"
	"time"
)

// Finding is one flagged line.
type Finding struct {
	RuleID      string
	Description string
	Severity    string
	Path        string
	Line        int
}

// String renders the finding as a violation line for operator logs.
func (f Finding) String() string {
	return fmt.Sprintf("potential secret in %s:%d (%s): review for hardcoded credentials", f.Path, f.Line, f.Description)
}

// Result aggregates a full tree scan.
type Result struct {
	Findings     []Finding
	ByRule       map[string]int
	FilesScanned int
	Duration     time.Duration
}

// Clean reports whether the scan produced no findings.
func (r *Result) Clean() bool {
	return len(r.Findings) == 0
}
