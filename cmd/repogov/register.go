package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/githubsync"
	"github.com/fyrsmithlabs/repogov/internal/registry"
)

// projectID associates the repository with a project board entry
var projectID string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this repository in the admin control plane",
	Long: `Register the repository in the admin control plane's registry document.
The upsert is idempotent: registering an already-registered repository
is a no-op, keyed by repository name.

Examples:
  # Register the current repository
  repogov register

  # Register with a project board association
  repogov register --project-id PVT_kwDOABC123`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&projectID, "project-id", "", "project board ID to associate")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.GitHub.Token.IsSet() {
		return fmt.Errorf("%w: github.token is required for register", config.ErrConfig)
	}
	org, repo := identity(cfg)
	if org == "" || repo == "" {
		return fmt.Errorf("%w: repository identity unknown, set github.org and github.repo", config.ErrConfig)
	}

	ctx := cmd.Context()
	client, err := githubsync.NewClient(ctx, cfg.GitHub.Token)
	if err != nil {
		return err
	}
	store := registry.NewGitHubStore(client, org, cfg.GitHub.AdminRepo, cfg.GitHub.RegistryPath)

	outcome, err := registry.Upsert(ctx, store, org, repo, projectID, time.Now())
	if err != nil {
		return fmt.Errorf("register repository: %w", err)
	}

	switch outcome {
	case registry.AlreadyRegistered:
		logger.Info("repository already registered", zap.String("repo", repo))
		fmt.Printf("%s/%s is already registered\n", org, repo)
	default:
		logger.Info("repository registered",
			zap.String("repo", repo),
			zap.String("admin_repo", cfg.GitHub.AdminRepo))
		fmt.Printf("Registered %s/%s in %s\n", org, repo, cfg.GitHub.AdminRepo)
	}
	return nil
}
