// Package gitinfo resolves repository identity (org, repo, branch) from
// the local git checkout, for use in event payloads and connector
// defaults. Explicit configuration always wins over discovery.
package gitinfo

import (
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Identity names the repository a command is running inside.
type Identity struct {
	Org    string
	Repo   string
	Branch string
}

var (
	// git@github.com:org/repo.git
	sshPattern = regexp.MustCompile(`git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	// https://github.com/org/repo.git
	httpsPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)
)

// Discover inspects the checkout at path. Every field is best-effort:
// a missing repository or remote just leaves fields empty.
func Discover(path string) Identity {
	var id Identity

	repo, err := git.PlainOpen(path)
	if err != nil {
		return id
	}

	if remote, err := repo.Remote("origin"); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			id.Org, id.Repo = parseGitHubRemote(urls[0])
		}
	}

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		id.Branch = head.Name().Short()
	}

	return id
}

// parseGitHubRemote extracts org and repo from a GitHub remote URL.
func parseGitHubRemote(url string) (org, repo string) {
	url = strings.TrimSpace(url)
	for _, pattern := range []*regexp.Regexp{sshPattern, httpsPattern} {
		if m := pattern.FindStringSubmatch(url); len(m) > 2 {
			return m[1], m[2]
		}
	}
	return "", ""
}
