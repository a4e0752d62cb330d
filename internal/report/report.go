// Package report persists pipeline outcomes: the point-in-time
// validation report and the append-only memory registry.
package report

import (
	"time"
)

// SchemaVersion is stamped on every document this package writes.
const SchemaVersion = "1.0.0"

const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// CheckStatus is the persisted outcome of one check.
type CheckStatus struct {
	Status  string `json:"status"`
	LastRun string `json:"last_run"`
	Result  string `json:"result"`
}

// ValidationReport is the snapshot of all check outcomes for one run.
// It is fully regenerated on every pipeline run, never merged.
type ValidationReport struct {
	SchemaVersion string                 `json:"schema_version"`
	GeneratedAt   string                 `json:"generated_at"`
	Checks        map[string]CheckStatus `json:"checks"`
	Overall       string                 `json:"overall"`
}

// Aggregate folds named check results into a validation report.
//
// Overall is the logical AND over all results; an empty set is
// vacuously a pass. The generated_at timestamp and every check's
// last_run are the same instant, captured once, so the snapshot is
// internally consistent.
func Aggregate(results map[string]bool, now time.Time) *ValidationReport {
	ts := now.UTC().Format(time.RFC3339)
	report := &ValidationReport{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   ts,
		Checks:        make(map[string]CheckStatus, len(results)),
		Overall:       StatusPass,
	}

	for name, passed := range results {
		status := StatusPass
		if !passed {
			status = StatusFail
			report.Overall = StatusFail
		}
		report.Checks[name] = CheckStatus{Status: status, LastRun: ts, Result: status}
	}
	return report
}

// Matrix flattens the report into check-name → pass, the shape webhook
// and project-sync collaborators consume.
func (r *ValidationReport) Matrix() map[string]bool {
	matrix := make(map[string]bool, len(r.Checks))
	for name, check := range r.Checks {
		matrix[name] = check.Status == StatusPass
	}
	return matrix
}
