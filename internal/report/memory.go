package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/repogov/internal/docstore"
)

// MemoryEntry is one journaled pipeline run.
type MemoryEntry struct {
	Event     string            `json:"event"`
	RunID     string            `json:"run_id"`
	Timestamp string            `json:"timestamp"`
	Overall   string            `json:"overall"`
	Checks    map[string]string `json:"checks"`
}

// MemoryRegistry is the append-only run journal. Entries only ever grow.
type MemoryRegistry struct {
	SchemaVersion string        `json:"schema_version"`
	UpdatedAt     string        `json:"updated_at"`
	Entries       []MemoryEntry `json:"entries"`
}

// MemoryJournal appends pipeline runs to the memory registry document.
//
// The journal must never block the pipeline: a missing or corrupt
// document is treated as an empty registry, not an error.
type MemoryJournal struct {
	path string
}

// NewMemoryJournal creates a journal over the given document path.
func NewMemoryJournal(path string) *MemoryJournal {
	return &MemoryJournal{path: path}
}

// Load reads the registry, substituting an empty one for a missing or
// unparsable document.
func (j *MemoryJournal) Load() *MemoryRegistry {
	var registry MemoryRegistry
	if err := docstore.Load(j.path, &registry); err != nil {
		return &MemoryRegistry{SchemaVersion: SchemaVersion, Entries: []MemoryEntry{}}
	}
	if registry.Entries == nil {
		registry.Entries = []MemoryEntry{}
	}
	return &registry
}

// Append journals one run: read, append, write.
//
// The entry's overall is recomputed from the results here rather than
// copied from the validation report, so schema drift between the two
// documents cannot corrupt the journal.
func (j *MemoryJournal) Append(event string, results map[string]bool, now time.Time) error {
	registry := j.Load()

	overall := StatusPass
	checks := make(map[string]string, len(results))
	for name, passed := range results {
		if passed {
			checks[name] = StatusPass
		} else {
			checks[name] = StatusFail
			overall = StatusFail
		}
	}

	ts := now.UTC().Format(time.RFC3339)
	registry.Entries = append(registry.Entries, MemoryEntry{
		Event:     event,
		RunID:     uuid.NewString(),
		Timestamp: ts,
		Overall:   overall,
		Checks:    checks,
	})
	registry.UpdatedAt = ts

	return docstore.Save(j.path, registry)
}
