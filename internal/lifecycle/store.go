package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/repogov/internal/docstore"
)

// SchemaVersion is written to any document this package creates.
const SchemaVersion = "1.0.0"

// StateDoc is the lifecycle state document, one instance per repository.
// Next is empty when no transition is pending.
type StateDoc struct {
	Current       State  `json:"current"`
	Next          State  `json:"next"`
	Version       string `json:"version"`
	SchemaVersion string `json:"schema_version"`
}

// RequiredFields are the top-level keys every state document must carry.
var RequiredFields = []string{"current", "version", "schema_version"}

// Transition is one recorded edge in the history document.
type Transition struct {
	From      State  `json:"from"`
	To        State  `json:"to"`
	Timestamp string `json:"timestamp"`
}

// HistoryDoc is the append-only transition history. It grows
// monotonically; entries are never rewritten.
type HistoryDoc struct {
	SchemaVersion string       `json:"schema_version"`
	Transitions   []Transition `json:"transitions"`
}

// ErrNoPending is returned by Advance when the state document has no
// pending transition to apply.
var ErrNoPending = errors.New("no pending transition")

// Store reads and writes the state and history documents.
type Store struct {
	statePath   string
	historyPath string
}

// NewStore creates a store over the given document paths.
func NewStore(statePath, historyPath string) *Store {
	return &Store{statePath: statePath, historyPath: historyPath}
}

// LoadState reads the state document. A missing or malformed document is
// fatal for the invocation: every governed repository must carry one.
func (s *Store) LoadState() (*StateDoc, error) {
	var doc StateDoc
	if err := docstore.Load(s.statePath, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveState overwrites the state document.
func (s *Store) SaveState(doc *StateDoc) error {
	return docstore.Save(s.statePath, doc)
}

// LoadHistory reads the history document. A missing document is an empty
// history, created on first append.
func (s *Store) LoadHistory() (*HistoryDoc, error) {
	var doc HistoryDoc
	err := docstore.Load(s.historyPath, &doc)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &HistoryDoc{SchemaVersion: SchemaVersion}, nil
	case err != nil:
		return nil, err
	}
	return &doc, nil
}

// AppendTransition records from → to in the history document with a UTC
// timestamp. The history only ever grows.
func (s *Store) AppendTransition(from, to State, now time.Time) error {
	history, err := s.LoadHistory()
	if err != nil {
		return err
	}
	history.Transitions = append(history.Transitions, Transition{
		From:      from,
		To:        to,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	return docstore.Save(s.historyPath, history)
}

// Advance applies the pending transition: current becomes next and next
// is cleared. The edge is re-validated first so a hand-edited document
// cannot advance through an illegal edge. Advance does not touch the
// history document; that is the validation path's job.
func (s *Store) Advance() (*StateDoc, error) {
	doc, err := s.LoadState()
	if err != nil {
		return nil, err
	}

	decision, err := Validate(doc.Current, doc.Next)
	if err != nil {
		return nil, err
	}
	if decision != Legal {
		return nil, fmt.Errorf("%w: current state %s", ErrNoPending, doc.Current)
	}

	doc.Current = doc.Next
	doc.Next = ""
	if err := s.SaveState(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
