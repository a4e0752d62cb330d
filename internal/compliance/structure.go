package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocRule names one document the structural check validates and the
// top-level keys it must carry once parsed. Non-JSON documents are only
// checked for presence and non-emptiness.
type DocRule struct {
	Path         string
	RequiredKeys []string
}

// DefaultDocRules covers the governance artefacts and their schemas.
func DefaultDocRules() []DocRule {
	return []DocRule{
		{Path: "README.md"},
		{Path: "singularity/blueprint/master_invocation.md"},
		{Path: "singularity/blueprint/architecture.md"},
		{Path: "singularity/blueprint/roadmap.json", RequiredKeys: []string{"milestones"}},
		{Path: "singularity/evolution/checklist.json", RequiredKeys: []string{"items"}},
		{Path: "singularity/evolution/index.json", RequiredKeys: []string{"artefacts"}},
		{Path: "singularity/_STATE/state.json", RequiredKeys: []string{"current", "version", "schema_version"}},
	}
}

// StructureCheck validates that each named document exists, is
// non-empty, and (for JSON) parses and carries its required top-level
// keys. Malformed JSON short-circuits only that document's remaining
// checks: the other documents still run.
type StructureCheck struct {
	Root string
	Docs []DocRule
}

// NewStructureCheck builds the check with the default document rules.
func NewStructureCheck(root string) *StructureCheck {
	return &StructureCheck{Root: root, Docs: DefaultDocRules()}
}

func (c *StructureCheck) Name() string { return "document_structure" }

func (c *StructureCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name(), Passed: true}
	for _, doc := range c.Docs {
		for _, violation := range c.checkDoc(doc) {
			result.Passed = false
			result.Errors = append(result.Errors, violation)
		}
	}
	return result
}

func (c *StructureCheck) checkDoc(doc DocRule) []string {
	raw, err := os.ReadFile(filepath.Join(c.Root, doc.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{fmt.Sprintf("missing required document: %s", doc.Path)}
		}
		return []string{fmt.Sprintf("cannot read %s: %v", doc.Path, err)}
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return []string{fmt.Sprintf("document is empty: %s", doc.Path)}
	}

	if !strings.HasSuffix(doc.Path, ".json") {
		return nil
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Parser detail goes to the operator; remaining key checks for
		// this document are moot.
		return []string{fmt.Sprintf("invalid JSON in %s: %v", doc.Path, err)}
	}

	var violations []string
	for _, key := range doc.RequiredKeys {
		if _, ok := parsed[key]; !ok {
			violations = append(violations, fmt.Sprintf("%s is missing required top-level key: %q", doc.Path, key))
		}
	}
	return violations
}
