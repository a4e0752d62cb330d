package compliance

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fyrsmithlabs/repogov/internal/docstore"
)

// DefaultRequiredFiles is the fixed set of artefacts every governed
// repository must carry.
func DefaultRequiredFiles() []string {
	return []string{
		"README.md",
		"singularity/_STATE/state.json",
		"singularity/evolution/checklist.json",
		"singularity/blueprint/master_invocation.md",
		".github/CODEOWNERS",
	}
}

// RequiredFilesCheck verifies that a fixed list of paths exists under
// Root. Every missing path is one violation line; the check never stops
// at the first miss.
type RequiredFilesCheck struct {
	Root  string
	Paths []string
}

// NewRequiredFilesCheck builds the check with the default path list.
func NewRequiredFilesCheck(root string) *RequiredFilesCheck {
	return &RequiredFilesCheck{Root: root, Paths: DefaultRequiredFiles()}
}

func (c *RequiredFilesCheck) Name() string { return "required_files" }

func (c *RequiredFilesCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name(), Passed: true}
	for _, rel := range c.Paths {
		if !docstore.Exists(filepath.Join(c.Root, rel)) {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("required file missing: %s", rel))
		}
	}
	return result
}
