// Package pipeline orchestrates a full governance run: every compliance
// check executes, the validation report is regenerated, the memory
// registry records the run, and optional collaborators are notified on
// a best-effort basis.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/compliance"
	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/docstore"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
	"github.com/fyrsmithlabs/repogov/internal/report"
	"github.com/fyrsmithlabs/repogov/internal/techdetect"
)

// RunEvent is the memory-registry event name for a full pipeline run.
const RunEvent = "evolution_engine_run"

// Outcome is the result of one pipeline run.
type Outcome struct {
	Report  *report.ValidationReport
	Results map[string]compliance.Result
	State   *lifecycle.StateDoc
	Passed  bool
}

// Collaborator is an optional downstream notified after a run. Failures
// are logged, never propagated: collaborators cannot fail the core run.
type Collaborator struct {
	Name string
	Send func(ctx context.Context, out *Outcome) error
}

// Engine wires the checks to the governance documents.
type Engine struct {
	cfg     *config.Config
	store   *lifecycle.Store
	journal *report.MemoryJournal
	logger  *zap.Logger
}

func NewEngine(cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History)),
		journal: report.NewMemoryJournal(cfg.Abs(cfg.Paths.MemoryRegistry)),
		logger:  logger,
	}
}

// Run executes the full check battery. Every check runs regardless of
// earlier failures; the report and registry are written even when the
// run fails overall.
func (e *Engine) Run(ctx context.Context, now time.Time) (*Outcome, error) {
	root := e.cfg.Paths.Root

	secretCheck, err := compliance.NewSecretScanCheck(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
	}

	results := compliance.RunAll(ctx, e.logger,
		&stateCheck{store: e.store, now: now},
		compliance.NewRequiredFilesCheck(root),
		compliance.NewStructureCheck(root),
		secretCheck,
		&techCheck{
			detector: techdetect.NewDetector(root, e.logger),
			regPath:  e.cfg.Abs(e.cfg.Paths.TechRegistry),
			now:      now,
		},
	)

	matrix := make(map[string]bool, len(results))
	for name, result := range results {
		matrix[name] = result.Passed
	}

	rep := report.Aggregate(matrix, now)
	if err := docstore.Save(e.cfg.Abs(e.cfg.Paths.ValidationReport), rep); err != nil {
		return nil, fmt.Errorf("write validation report: %w", err)
	}
	if err := e.journal.Append(RunEvent, matrix, now); err != nil {
		return nil, fmt.Errorf("update memory registry: %w", err)
	}

	out := &Outcome{
		Report:  rep,
		Results: results,
		Passed:  compliance.Passed(results),
	}
	// Best-effort snapshot for collaborators; the state check already
	// reported a missing or malformed document.
	if state, err := e.store.LoadState(); err == nil {
		out.State = state
	}

	e.logger.Info("governance run complete",
		zap.Bool("passed", out.Passed),
		zap.Int("checks", len(results)))
	return out, nil
}

// FanOut notifies every collaborator. A collaborator error is a warning
// only and never affects the run outcome.
func (e *Engine) FanOut(ctx context.Context, out *Outcome, collaborators ...Collaborator) {
	for _, c := range collaborators {
		if err := c.Send(ctx, out); err != nil {
			e.logger.Warn("collaborator failed",
				zap.String("collaborator", c.Name),
				zap.Error(err))
			continue
		}
		e.logger.Info("collaborator notified", zap.String("collaborator", c.Name))
	}
}

// stateCheck validates the pending lifecycle transition. A legal
// pending edge is recorded in the history document, matching the
// standalone validate operation.
type stateCheck struct {
	store *lifecycle.Store
	now   time.Time
}

func (c *stateCheck) Name() string { return "state_machine" }

func (c *stateCheck) Run(_ context.Context) compliance.Result {
	result := compliance.Result{Name: c.Name(), Passed: true}

	doc, err := c.store.LoadState()
	if err != nil {
		result.Passed = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	decision, err := lifecycle.Validate(doc.Current, doc.Next)
	if err != nil {
		result.Passed = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if decision == lifecycle.Legal {
		if err := c.store.AppendTransition(doc.Current, doc.Next, c.now); err != nil {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("record transition: %v", err))
		}
	}
	return result
}

// techCheck refreshes the technology registry as part of the run.
type techCheck struct {
	detector *techdetect.Detector
	regPath  string
	now      time.Time
}

func (c *techCheck) Name() string { return "tech_detector" }

func (c *techCheck) Run(_ context.Context) compliance.Result {
	result := compliance.Result{Name: c.Name(), Passed: true}
	if _, err := c.detector.Scan(c.regPath, c.now); err != nil {
		result.Passed = false
		result.Errors = append(result.Errors, err.Error())
	}
	return result
}
