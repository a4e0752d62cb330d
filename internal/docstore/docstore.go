// Package docstore persists governance documents as JSON files.
//
// Every persisted document (state, history, validation report, memory
// registry, tech registry) is a single JSON file owned by the invocation
// that reads-modifies-writes it. Writes are atomic (temp file + rename)
// so a crashed run never leaves a half-written document behind.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Errors for document operations.
var (
	ErrNotFound  = errors.New("document not found")
	ErrMalformed = errors.New("document malformed")
)

// Load reads the JSON document at path into v.
//
// A missing file is ErrNotFound; invalid JSON is ErrMalformed wrapping the
// parser's detail. Callers decide which of the two is fatal: the state
// document must exist, the memory registry tolerates both.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return nil
}

// Save writes v as indented JSON to path, atomically.
// Parent directories are created as needed.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a document is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
