package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// GitHubStore keeps the admin registry as a JSON file in the admin
// control-plane repository, via the GitHub contents API. The content
// SHA returned at read time is the optimistic write token: the contents
// API rejects an update carrying a stale SHA.
type GitHubStore struct {
	client *github.Client
	org    string
	repo   string
	path   string
}

// NewGitHubStore creates a store over org/repo at path
// (e.g. "registry/repos.json").
func NewGitHubStore(client *github.Client, org, repo, path string) *GitHubStore {
	return &GitHubStore{client: client, org: org, repo: repo, path: path}
}

// Fetch reads the registry file. A 404 yields an empty registry with an
// empty token, so the first registered repository creates the file.
func (s *GitHubStore) Fetch(ctx context.Context) (*AdminRegistry, string, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.org, s.repo, s.path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &AdminRegistry{SchemaVersion: SchemaVersion, Repos: []Entry{}}, "", nil
		}
		return nil, "", fmt.Errorf("get %s/%s/%s: %w", s.org, s.repo, s.path, err)
	}
	if file == nil {
		return nil, "", fmt.Errorf("%s/%s/%s is not a file", s.org, s.repo, s.path)
	}

	raw, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", s.path, err)
	}

	var reg AdminRegistry
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", s.path, err)
	}
	if reg.Repos == nil {
		reg.Repos = []Entry{}
	}
	return &reg, file.GetSHA(), nil
}

// Put writes the registry back. An empty token creates the file; a
// non-empty one must still match the remote content SHA or the write is
// rejected as ErrConflict.
func (s *GitHubStore) Put(ctx context.Context, registry *AdminRegistry, token string) error {
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("chore: update admin registry (%s)", s.path)),
		Content: data,
	}

	var resp *github.Response
	if token == "" {
		_, resp, err = s.client.Repositories.CreateFile(ctx, s.org, s.repo, s.path, opts)
	} else {
		opts.SHA = github.String(token)
		_, resp, err = s.client.Repositories.UpdateFile(ctx, s.org, s.repo, s.path, opts)
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity) {
			return fmt.Errorf("%w: %s changed since read", ErrConflict, s.path)
		}
		return fmt.Errorf("put %s: %w", s.path, err)
	}
	return nil
}
