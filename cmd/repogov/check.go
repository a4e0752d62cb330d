package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/githubsync"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
	"github.com/fyrsmithlabs/repogov/internal/mesh"
	"github.com/fyrsmithlabs/repogov/internal/notify"
	"github.com/fyrsmithlabs/repogov/internal/pipeline"
	"github.com/fyrsmithlabs/repogov/internal/vault"
)

// dispatchAfterRun enables the best-effort collaborator fan-out
var dispatchAfterRun bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full governance check battery",
	Long: `Run every compliance check, regenerate the validation report and record
the run in the memory registry. All checks run even when earlier ones
fail. Exit code 1 means at least one check failed.

Examples:
  # Run the checks
  repogov check

  # Run and notify the mesh, project sync, vault and workspace connectors
  repogov check --dispatch`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&dispatchAfterRun, "dispatch", false,
		"notify downstream collaborators after the run (best effort)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	engine := pipeline.NewEngine(cfg, logger)
	out, err := engine.Run(ctx, time.Now())
	if err != nil {
		return err
	}

	for name, result := range out.Results {
		marker := "PASS"
		if !result.Passed {
			marker = "FAIL"
		}
		fmt.Printf("[%s] %s\n", marker, name)
		for _, line := range result.Errors {
			fmt.Printf("       %s\n", line)
		}
	}

	if dispatchAfterRun {
		engine.FanOut(ctx, out, collaborators(cfg, logger)...)
	}

	if !out.Passed {
		return errViolations
	}
	fmt.Println("All governance checks passed")
	return nil
}

// collaborators builds the downstream fan-out set. Each entry degrades
// to a logged no-op when its connector is unconfigured.
func collaborators(cfg *config.Config, logger *zap.Logger) []pipeline.Collaborator {
	org, repo := identity(cfg)

	return []pipeline.Collaborator{
		{Name: "mesh", Send: func(ctx context.Context, out *pipeline.Outcome) error {
			dispatcher := mesh.NewDispatcher(cfg.Mesh, logger)
			event := mesh.BuildEvent(snapshot(out), out.Report.Matrix(), org, repo, time.Now())
			return dispatcher.Send(ctx, event)
		}},
		{Name: "github_sync", Send: func(ctx context.Context, out *pipeline.Outcome) error {
			if !cfg.GitHub.Token.IsSet() {
				logger.Warn("github token not configured, skipping project sync")
				return nil
			}
			client, err := githubsync.NewClient(ctx, cfg.GitHub.Token)
			if err != nil {
				return err
			}
			syncer := githubsync.NewSyncer(client, org, repo, logger)
			if err := syncer.PostStatusComment(ctx, snapshot(out)); err != nil {
				return err
			}
			return syncer.PostValidationMatrix(ctx, out.Report)
		}},
		{Name: "vault", Send: func(ctx context.Context, out *pipeline.Outcome) error {
			return vault.NewClient(cfg.Vault, logger).SyncRelease(ctx, snapshot(out), time.Now())
		}},
		{Name: "workspace", Send: func(ctx context.Context, out *pipeline.Outcome) error {
			client := notify.NewClient(cfg.Google, logger)
			subject := fmt.Sprintf("[repogov] %s/%s governance run: %s", org, repo, out.Report.Overall)
			if err := client.SendMail(ctx, subject, runSummary(out)); err != nil {
				return err
			}
			if err := client.AppendRow(ctx, []string{
				repo, out.Report.Overall, out.Report.GeneratedAt,
			}); err != nil {
				return err
			}
			raw, err := json.MarshalIndent(out.Report, "", "  ")
			if err != nil {
				return err
			}
			return client.ArchiveReport(ctx, repo, raw, time.Now())
		}},
	}
}

// snapshot returns the run's state document, or an empty one when the
// state check already reported it missing.
func snapshot(out *pipeline.Outcome) *lifecycle.StateDoc {
	if out.State != nil {
		return out.State
	}
	return &lifecycle.StateDoc{}
}

func runSummary(out *pipeline.Outcome) string {
	summary := fmt.Sprintf("Overall: %s\n", out.Report.Overall)
	for name, result := range out.Results {
		status := "pass"
		if !result.Passed {
			status = "fail"
		}
		summary += fmt.Sprintf("%s: %s\n", name, status)
	}
	return summary
}
