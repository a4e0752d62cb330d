package githubsync

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v57/github"
)

// RetryConfig configures retry behavior for GitHub API calls.
type RetryConfig struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// withRetry runs a GitHub API operation, retrying rate limits and
// server errors with exponential backoff. Other client errors are
// returned immediately.
func withRetry(ctx context.Context, cfg RetryConfig, operation func() (*github.Response, error)) error {
	attempt := func() error {
		resp, err := operation()
		if err == nil {
			return nil
		}
		if resp != nil {
			switch {
			case resp.StatusCode == http.StatusForbidden && resp.Rate.Remaining == 0:
				return err // rate limited, retry after backoff
			case resp.StatusCode >= 500:
				return err
			default:
				return backoff.Permanent(err)
			}
		}
		return err // network error, retry
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialBackoff
	policy.MaxInterval = cfg.MaxBackoff

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, cfg.MaxRetries), ctx))
}
