// Package techdetect inventories the technologies present in a
// repository checkout by matching known file indicators, and writes the
// result to the technology registry document.
package techdetect

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/docstore"
)

// SchemaVersion identifies the registry document layout.
const SchemaVersion = "1.0.0"

// Indicator maps a file pattern to the technology it evidences.
// Patterns without a slash match basenames anywhere in the tree;
// patterns with slashes match any path suffix, with ** spanning
// directories.
type Indicator struct {
	Pattern  string
	Name     string
	Category string
}

// DefaultIndicators is ordered: the first indicator that matches a
// technology name claims it.
func DefaultIndicators() []Indicator {
	return []Indicator{
		{"*.py", "Python", "language"},
		{"*.js", "JavaScript", "language"},
		{"*.ts", "TypeScript", "language"},
		{"*.go", "Go", "language"},
		{"*.java", "Java", "language"},
		{"*.rs", "Rust", "language"},
		{"*.rb", "Ruby", "language"},
		{"Dockerfile*", "Docker", "infrastructure"},
		{"docker-compose*.yml", "Docker Compose", "infrastructure"},
		{".github/workflows/*.yml", "GitHub Actions", "ci_cd"},
		{"terraform/**/*.tf", "Terraform", "infrastructure"},
		{"*.tf", "Terraform", "infrastructure"},
		{"package.json", "Node.js", "runtime"},
		{"requirements*.txt", "pip (Python)", "package_manager"},
		{"Pipfile", "Pipenv", "package_manager"},
		{"pyproject.toml", "Python Packaging", "package_manager"},
		{"pom.xml", "Maven", "package_manager"},
		{"build.gradle", "Gradle", "package_manager"},
		{"Gemfile", "Bundler (Ruby)", "package_manager"},
		{"go.mod", "Go Modules", "package_manager"},
		{"Cargo.toml", "Cargo (Rust)", "package_manager"},
		{"*.ps1", "PowerShell", "scripting"},
		{"*.sh", "Bash", "scripting"},
	}
}

var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
	".venv":        {},
	"vendor":       {},
}

// Technology is one detected entry in the registry.
type Technology struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	DetectedVia string `json:"detected_via"`
	FileCount   int    `json:"file_count"`
}

// Registry is the persisted technology inventory. Each scan replaces
// the previous document wholesale.
type Registry struct {
	SchemaVersion string       `json:"schema_version"`
	UpdatedAt     string       `json:"updated_at"`
	Technologies  []Technology `json:"technologies"`
}

// Detector scans a repository root against an indicator table.
type Detector struct {
	root       string
	indicators []Indicator
	logger     *zap.Logger
}

func NewDetector(root string, logger *zap.Logger) *Detector {
	return &Detector{root: root, indicators: DefaultIndicators(), logger: logger}
}

// Detect walks the tree once and evaluates every indicator against the
// collected file paths.
func (d *Detector) Detect() ([]Technology, error) {
	var files []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip && p != d.root {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.root, err)
	}

	var found []Technology
	seen := make(map[string]struct{})
	for _, ind := range d.indicators {
		if _, dup := seen[ind.Name]; dup {
			continue
		}
		count := 0
		for _, file := range files {
			if matchIndicator(ind.Pattern, file) {
				count++
			}
		}
		if count > 0 {
			seen[ind.Name] = struct{}{}
			found = append(found, Technology{
				Name:        ind.Name,
				Category:    ind.Category,
				DetectedVia: ind.Pattern,
				FileCount:   count,
			})
		}
	}
	return found, nil
}

// Scan runs detection and overwrites the registry document at regPath.
func (d *Detector) Scan(regPath string, now time.Time) (*Registry, error) {
	technologies, err := d.Detect()
	if err != nil {
		return nil, err
	}
	reg := &Registry{
		SchemaVersion: SchemaVersion,
		UpdatedAt:     now.UTC().Format(time.RFC3339),
		Technologies:  technologies,
	}
	if err := docstore.Save(regPath, reg); err != nil {
		return nil, err
	}
	d.logger.Info("technology registry updated",
		zap.Int("technologies", len(technologies)),
		zap.String("path", regPath))
	return reg, nil
}

// matchIndicator matches a slash-normalized relative path against a
// pattern. Basename patterns may match at any depth; path patterns may
// anchor at any directory level, with ** crossing levels.
func matchIndicator(pattern, rel string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}

	patSegs := strings.Split(pattern, "/")
	relSegs := strings.Split(rel, "/")
	for start := 0; start <= len(relSegs)-1; start++ {
		if matchSegments(patSegs, relSegs[start:]) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		for skip := 0; skip <= len(segs); skip++ {
			if matchSegments(pattern[1:], segs[skip:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, _ := path.Match(pattern[0], segs[0])
	return ok && matchSegments(pattern[1:], segs[1:])
}
