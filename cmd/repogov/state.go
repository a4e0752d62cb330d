package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Lifecycle state operations",
}

var stateValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the pending lifecycle transition",
	Long: `Validate the transition requested by the state document's "next" field
against the fixed lifecycle graph. A legal transition is appended to the
transition history; the state document itself is never modified.

Examples:
  # Validate the current repository
  repogov state validate`,
	RunE: runStateValidate,
}

var stateAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Apply the pending lifecycle transition",
	Long: `Apply the pending transition: "current" becomes "next" and "next" is
cleared. The edge is re-validated first; an illegal or absent pending
transition leaves the document untouched.`,
	RunE: runStateAdvance,
}

func init() {
	stateCmd.AddCommand(stateValidateCmd)
	stateCmd.AddCommand(stateAdvanceCmd)
}

func runStateValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History))
	doc, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("load state document: %w", err)
	}

	decision, err := lifecycle.Validate(doc.Current, doc.Next)
	switch {
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		logger.Warn("illegal transition requested", zap.Error(err))
		fmt.Println(err)
		return errViolations
	case err != nil:
		return fmt.Errorf("state document: %w", err)
	}

	if decision != lifecycle.Legal {
		fmt.Printf("No transition pending (current: %s)\n", doc.Current)
		return nil
	}

	if err := store.AppendTransition(doc.Current, doc.Next, time.Now()); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	logger.Info("transition validated",
		zap.String("from", string(doc.Current)),
		zap.String("to", string(doc.Next)))
	fmt.Printf("Transition %s -> %s is legal and has been recorded\n", doc.Current, doc.Next)
	return nil
}

func runStateAdvance(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History))
	doc, err := store.Advance()
	if err != nil {
		return fmt.Errorf("advance state: %w", err)
	}

	logger.Info("state advanced", zap.String("current", string(doc.Current)))
	fmt.Printf("State advanced to %s (%s)\n", doc.Current, lifecyclePosition(doc.Current))
	return nil
}

// lifecyclePosition renders where a state sits in the lifecycle order,
// e.g. "4 of 7".
func lifecyclePosition(s lifecycle.State) string {
	states := lifecycle.States()
	for i, candidate := range states {
		if candidate == s {
			return fmt.Sprintf("%d of %d", i+1, len(states))
		}
	}
	return "unknown"
}
