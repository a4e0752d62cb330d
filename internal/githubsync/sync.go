package githubsync

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
	"github.com/fyrsmithlabs/repogov/internal/report"
)

// IssueTemplatePath is where the state-transition template lives in a
// governed repository.
const IssueTemplatePath = ".github/ISSUE_TEMPLATE/state_transition.md"

const issueTemplate = `---
name: State Transition Request
about: Request a state transition in the governance lifecycle
title: "[STATE TRANSITION] <current> -> <next>"
labels: ["governance", "state-transition"]
assignees: []
---

## State Transition Request

| Field | Value |
|---|---|
| Current State | <!-- e.g. VALIDATION --> |
| Requested Next State | <!-- e.g. APPROVAL --> |
| Requested by | @<!-- your GitHub handle --> |
| Reason | <!-- Brief justification --> |

## Validation Matrix

- [ ] Required files check passed
- [ ] Document structure check passed
- [ ] Secret scan passed
- [ ] State machine check passed

## Notes

<!-- Any additional context -->
`

// Syncer posts governance status to a repository's issues.
type Syncer struct {
	client *github.Client
	org    string
	repo   string
	retry  RetryConfig
	logger *zap.Logger
}

// NewSyncer creates a Syncer for org/repo.
func NewSyncer(client *github.Client, org, repo string, logger *zap.Logger) *Syncer {
	return &Syncer{client: client, org: org, repo: repo, retry: DefaultRetryConfig(), logger: logger}
}

// PostStatusComment writes a state-sync comment to the most recently
// updated open issue. No open issue is not an error, just a skip.
func (s *Syncer) PostStatusComment(ctx context.Context, state *lifecycle.StateDoc) error {
	number, ok, err := s.latestOpenIssue(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("no open issues, skipping state comment")
		return nil
	}

	next := string(state.Next)
	if next == "" {
		next = "none"
	}
	version := state.Version
	if version == "" {
		version = "0.0.0"
	}
	body := fmt.Sprintf(
		"**Governance: State Sync**\n\n| Field | Value |\n|---|---|\n| Current State | `%s` |\n| Next State | `%s` |\n| Version | `%s` |\n",
		state.Current, next, version,
	)

	if err := s.comment(ctx, number, body); err != nil {
		return err
	}
	s.logger.Info("state comment posted", zap.Int("issue", number))
	return nil
}

// PostValidationMatrix writes the pass/fail matrix of a validation
// report to the most recently updated open issue.
func (s *Syncer) PostValidationMatrix(ctx context.Context, rep *report.ValidationReport) error {
	number, ok, err := s.latestOpenIssue(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("no open issues, skipping validation matrix")
		return nil
	}

	names := make([]string, 0, len(rep.Checks))
	for name := range rep.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "**Governance: Validation Matrix** (overall: `%s`)\n\n", rep.Overall)
	b.WriteString("| Check | Result |\n|---|---|\n")
	for _, name := range names {
		fmt.Fprintf(&b, "| %s | `%s` |\n", name, rep.Checks[name].Status)
	}

	if err := s.comment(ctx, number, b.String()); err != nil {
		return err
	}
	s.logger.Info("validation matrix posted", zap.Int("issue", number))
	return nil
}

// EnsureIssueTemplate creates the state-transition issue template if the
// repository does not already carry one. Idempotent.
func (s *Syncer) EnsureIssueTemplate(ctx context.Context) (created bool, err error) {
	_, _, resp, err := s.client.Repositories.GetContents(ctx, s.org, s.repo, IssueTemplatePath, nil)
	if err == nil {
		return false, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return false, fmt.Errorf("check issue template: %w", err)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String("chore: add state transition issue template"),
		Content: []byte(issueTemplate),
	}
	err = withRetry(ctx, s.retry, func() (*github.Response, error) {
		_, resp, err := s.client.Repositories.CreateFile(ctx, s.org, s.repo, IssueTemplatePath, opts)
		return resp, err
	})
	if err != nil {
		return false, fmt.Errorf("create issue template: %w", err)
	}
	s.logger.Info("issue template created", zap.String("path", IssueTemplatePath))
	return true, nil
}

// latestOpenIssue returns the number of the most recently updated open
// issue, or ok=false when the repository has none.
func (s *Syncer) latestOpenIssue(ctx context.Context) (number int, ok bool, err error) {
	var issues []*github.Issue
	err = withRetry(ctx, s.retry, func() (*github.Response, error) {
		var resp *github.Response
		issues, resp, err = s.client.Issues.ListByRepo(ctx, s.org, s.repo, &github.IssueListByRepoOptions{
			State:       "open",
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: github.ListOptions{PerPage: 5},
		})
		return resp, err
	})
	if err != nil {
		return 0, false, fmt.Errorf("list issues: %w", err)
	}

	for _, issue := range issues {
		// Pull requests surface through the issues API too
		if issue.IsPullRequest() {
			continue
		}
		return issue.GetNumber(), true, nil
	}
	return 0, false, nil
}

func (s *Syncer) comment(ctx context.Context, number int, body string) error {
	return withRetry(ctx, s.retry, func() (*github.Response, error) {
		_, resp, err := s.client.Issues.CreateComment(ctx, s.org, s.repo, number, &github.IssueComment{
			Body: github.String(body),
		})
		return resp, err
	})
}
