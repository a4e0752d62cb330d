package compliance

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/repogov/internal/secrets"
)

// SecretScanCheck wraps the secret-leakage scanner as a compliance
// check over the repository root.
type SecretScanCheck struct {
	Root    string
	Scanner *secrets.Scanner
}

// NewSecretScanCheck builds the check with the default scanner rules.
func NewSecretScanCheck(root string) (*SecretScanCheck, error) {
	scanner, err := secrets.New(nil)
	if err != nil {
		return nil, err
	}
	return &SecretScanCheck{Root: root, Scanner: scanner}, nil
}

func (c *SecretScanCheck) Name() string { return "secret_scan" }

func (c *SecretScanCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name(), Passed: true}

	scan, err := c.Scanner.ScanTree(c.Root)
	if err != nil {
		result.Passed = false
		result.Errors = append(result.Errors, fmt.Sprintf("secret scan failed: %v", err))
		return result
	}

	for _, finding := range scan.Findings {
		result.Passed = false
		result.Errors = append(result.Errors, finding.String())
	}
	return result
}
