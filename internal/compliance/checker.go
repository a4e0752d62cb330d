// Package compliance runs the governance protocol checks: required-file
// presence, structural document validation, and the secret-leakage scan.
//
// Checks are independent. A failure in one never prevents the others from
// running; the pipeline reports every violation together instead of
// failing fast.
package compliance

import (
	"context"

	"go.uber.org/zap"
)

// Result is the outcome of one check. Errors holds human-readable
// violation lines for operator logs; only Passed feeds the persisted
// validation report.
type Result struct {
	Name   string
	Passed bool
	Errors []string
}

// Check is one independent compliance rule.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll executes every check and returns all results keyed by check
// name. All checks execute even when earlier ones fail.
func RunAll(ctx context.Context, logger *zap.Logger, checks ...Check) map[string]Result {
	results := make(map[string]Result, len(checks))
	for _, check := range checks {
		result := check.Run(ctx)
		results[result.Name] = result

		if result.Passed {
			logger.Info("check passed", zap.String("check", result.Name))
			continue
		}
		logger.Warn("check failed",
			zap.String("check", result.Name),
			zap.Int("violations", len(result.Errors)))
		for _, line := range result.Errors {
			logger.Warn("violation", zap.String("check", result.Name), zap.String("detail", line))
		}
	}
	return results
}

// Passed reports the logical AND over all results. An empty set passes.
func Passed(results map[string]Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
