// Package githubsync mirrors governance state into GitHub: status
// comments on the most recent open issue, validation matrix comments,
// and the standard state-transition issue template.
//
// Every operation is a collaborator call from the core's perspective:
// missing credentials skip the sync, API failures are surfaced for
// warning logs, and nothing here ever fails a pipeline run.
package githubsync

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/repogov/internal/config"
)

// NewClient creates an authenticated GitHub client.
func NewClient(ctx context.Context, token config.Secret) (*github.Client, error) {
	if !token.IsSet() {
		return nil, fmt.Errorf("GitHub token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc), nil
}
