package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/docstore"
	"github.com/fyrsmithlabs/repogov/internal/githubsync"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
	"github.com/fyrsmithlabs/repogov/internal/mesh"
	"github.com/fyrsmithlabs/repogov/internal/notify"
	"github.com/fyrsmithlabs/repogov/internal/report"
	"github.com/fyrsmithlabs/repogov/internal/techdetect"
	"github.com/fyrsmithlabs/repogov/internal/vault"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send the current state and validation matrix to the event mesh",
	Long: `Build a STATE_TRANSITION event from the state document and the last
validation report and post it to the configured mesh webhook. Without a
configured hook URL the command is a logged no-op.`,
	RunE: runDispatch,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync state and validation results to GitHub issues",
	Long: `Post the lifecycle state and the last validation matrix as comments on
the most recently updated open issue, and make sure the state
transition issue template exists.`,
	RunE: runSync,
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Secret-store operations",
}

var vaultSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write the release snapshot to the secret store",
	RunE:  runVaultSync,
}

var vaultReadCmd = &cobra.Command{
	Use:   "read <name>",
	Short: "Read a secret and report its field count",
	Args:  cobra.ExactArgs(1),
	RunE:  runVaultRead,
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the last run's results to the workspace connectors",
	Long: `Mail the last validation report to the configured recipient, append an
audit row to the tracking spreadsheet and archive the report in Drive.
Without an OAuth token every call is a logged no-op.`,
	RunE: runNotify,
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan the repository for known technologies",
	Long: `Walk the repository tree, match known technology indicators and
overwrite the technology registry with the result.`,
	RunE: runDetect,
}

func init() {
	vaultCmd.AddCommand(vaultSyncCmd)
	vaultCmd.AddCommand(vaultReadCmd)
}

// loadReport reads the last validation report. A repository that has
// never been checked yields an empty report, not an error.
func loadReport(cfg *config.Config) (*report.ValidationReport, error) {
	var rep report.ValidationReport
	err := docstore.Load(cfg.Abs(cfg.Paths.ValidationReport), &rep)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &report.ValidationReport{Checks: map[string]report.CheckStatus{}}, nil
	case err != nil:
		return nil, err
	}
	return &rep, nil
}

func runDispatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History))
	state, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("load state document: %w", err)
	}
	rep, err := loadReport(cfg)
	if err != nil {
		return fmt.Errorf("load validation report: %w", err)
	}

	org, repo := identity(cfg)
	dispatcher := mesh.NewDispatcher(cfg.Mesh, logger)
	event := mesh.BuildEvent(state, rep.Matrix(), org, repo, time.Now())
	if err := dispatcher.Send(cmd.Context(), event); err != nil {
		return fmt.Errorf("dispatch event: %w", err)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.GitHub.Token.IsSet() {
		logger.Warn("github token not configured, nothing to sync")
		return nil
	}
	org, repo := identity(cfg)
	if org == "" || repo == "" {
		return fmt.Errorf("%w: repository identity unknown, set github.org and github.repo", config.ErrConfig)
	}

	store := lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History))
	state, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("load state document: %w", err)
	}
	rep, err := loadReport(cfg)
	if err != nil {
		return fmt.Errorf("load validation report: %w", err)
	}

	ctx := cmd.Context()
	client, err := githubsync.NewClient(ctx, cfg.GitHub.Token)
	if err != nil {
		return err
	}
	syncer := githubsync.NewSyncer(client, org, repo, logger)

	if created, err := syncer.EnsureIssueTemplate(ctx); err != nil {
		return fmt.Errorf("ensure issue template: %w", err)
	} else if created {
		logger.Info("issue template created")
	}
	if err := syncer.PostStatusComment(ctx, state); err != nil {
		return fmt.Errorf("post status comment: %w", err)
	}
	if len(rep.Checks) > 0 {
		if err := syncer.PostValidationMatrix(ctx, rep); err != nil {
			return fmt.Errorf("post validation matrix: %w", err)
		}
	}
	fmt.Printf("Synced %s/%s\n", org, repo)
	return nil
}

func runVaultSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := lifecycle.NewStore(cfg.Abs(cfg.Paths.State), cfg.Abs(cfg.Paths.History))
	state, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("load state document: %w", err)
	}

	client := vault.NewClient(cfg.Vault, logger)
	if err := client.SyncRelease(cmd.Context(), state, time.Now()); err != nil {
		return fmt.Errorf("sync release snapshot: %w", err)
	}
	return nil
}

func runVaultRead(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := vault.NewClient(cfg.Vault, logger)
	data, err := client.Read(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}

	// Field count only. Secret values never reach stdout.
	fmt.Printf("%s: %d field(s)\n", args[0], len(data))
	return nil
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	rep, err := loadReport(cfg)
	if err != nil {
		return fmt.Errorf("load validation report: %w", err)
	}
	org, repo := identity(cfg)

	ctx := cmd.Context()
	client := notify.NewClient(cfg.Google, logger)

	subject := fmt.Sprintf("[repogov] %s/%s governance run: %s", org, repo, rep.Overall)
	body := fmt.Sprintf("Overall: %s\nGenerated: %s\nChecks: %d\n",
		rep.Overall, rep.GeneratedAt, len(rep.Checks))
	if err := client.SendMail(ctx, subject, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if err := client.AppendRow(ctx, []string{repo, rep.Overall, rep.GeneratedAt}); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := client.ArchiveReport(ctx, repo, raw, time.Now()); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	detector := techdetect.NewDetector(cfg.Paths.Root, logger)
	reg, err := detector.Scan(cfg.Abs(cfg.Paths.TechRegistry), time.Now())
	if err != nil {
		return fmt.Errorf("technology scan: %w", err)
	}

	fmt.Printf("Detected %d technologies\n", len(reg.Technologies))
	for _, tech := range reg.Technologies {
		fmt.Printf("  %s (%s): %d file(s)\n", tech.Name, tech.Category, tech.FileCount)
	}
	logger.Info("technology scan complete", zap.Int("technologies", len(reg.Technologies)))
	return nil
}
