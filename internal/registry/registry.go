// Package registry manages the cross-repository admin registry: the
// org-level record of which repositories are onboarded to the
// governance process.
//
// Unlike the per-repository documents, the admin registry is shared by
// every repository in the organisation, so writes go through an
// optimistic-concurrency token: the store hands out a token at read
// time and rejects a write carrying a stale one. A lost update becomes
// an explicit ErrConflict the caller can retry instead of silent data
// loss.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// SchemaVersion is stamped on a freshly created registry document.
const SchemaVersion = "1.0.0"

// Errors for registry operations. ErrConflict is distinct from generic
// write failures so callers can retry the read-modify-write cycle.
var (
	ErrConflict    = errors.New("registry write conflict")
	ErrInvalidName = errors.New("invalid name: must be alphanumeric with hyphens/underscores/dots")
)

// namePattern validates org and repository names.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Entry is one onboarded repository.
type Entry struct {
	Name         string  `json:"name"`
	Org          string  `json:"org"`
	ProjectID    *string `json:"project_id"`
	RegisteredAt string  `json:"registered_at"`
}

// AdminRegistry is the persisted registry document. Repos is a set
// keyed by Name.
type AdminRegistry struct {
	SchemaVersion string  `json:"schema_version"`
	Repos         []Entry `json:"repos"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

// Lookup returns the entry with the given repository name, if present.
func (r *AdminRegistry) Lookup(name string) (*Entry, bool) {
	for i := range r.Repos {
		if r.Repos[i].Name == name {
			return &r.Repos[i], true
		}
	}
	return nil, false
}

// Store persists the admin registry with if-match write semantics.
type Store interface {
	// Fetch returns the current registry and an opaque write token.
	// A store with no document yet returns an empty registry and an
	// empty token.
	Fetch(ctx context.Context) (*AdminRegistry, string, error)

	// Put writes the registry. The token must be the one obtained from
	// the preceding Fetch; a stale token yields ErrConflict.
	Put(ctx context.Context, registry *AdminRegistry, token string) error
}

// Outcome reports what an upsert did.
type Outcome int

const (
	// Registered means a new entry was appended.
	Registered Outcome = iota
	// AlreadyRegistered means an entry with the same name existed and
	// the operation was a no-op.
	AlreadyRegistered
)

// ValidateName checks an org or repository name.
func ValidateName(name string) error {
	if name == "" || len(name) > 255 || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Upsert inserts repo into the registry, keyed by name.
//
// The operation is idempotent: an existing entry with the same name
// makes it a no-op reporting AlreadyRegistered, so the pipeline can be
// invoked repeatedly for one repository without producing duplicates.
// An empty projectID is recorded as null.
func Upsert(ctx context.Context, store Store, org, repo, projectID string, now time.Time) (Outcome, error) {
	if err := ValidateName(org); err != nil {
		return AlreadyRegistered, err
	}
	if err := ValidateName(repo); err != nil {
		return AlreadyRegistered, err
	}

	reg, token, err := store.Fetch(ctx)
	if err != nil {
		return AlreadyRegistered, fmt.Errorf("fetch registry: %w", err)
	}
	if reg.SchemaVersion == "" {
		reg.SchemaVersion = SchemaVersion
	}

	if _, ok := reg.Lookup(repo); ok {
		return AlreadyRegistered, nil
	}

	ts := now.UTC().Format(time.RFC3339)
	entry := Entry{Name: repo, Org: org, RegisteredAt: ts}
	if projectID != "" {
		entry.ProjectID = &projectID
	}
	reg.Repos = append(reg.Repos, entry)
	reg.UpdatedAt = ts

	if err := store.Put(ctx, reg, token); err != nil {
		return AlreadyRegistered, fmt.Errorf("write registry: %w", err)
	}
	return Registered, nil
}
