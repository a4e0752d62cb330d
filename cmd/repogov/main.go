// Package main implements the repogov CLI for repository governance operations.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/gitinfo"
	"github.com/fyrsmithlabs/repogov/internal/logging"
)

var (
	// configFile overrides the default config file location
	configFile string
	// version information
	version = "dev"
)

// errViolations signals a clean run that found governance violations.
// The process exits 1 without a stack of wrapped detail; the violations
// themselves were already logged.
var errViolations = errors.New("governance violations found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repogov",
	Short: "Repository governance automation",
	Long: `repogov enforces the fixed repository lifecycle and its compliance
protocol: state transitions, required artefacts, document structure and
secret hygiene. It also syncs run results to the admin control plane,
the event mesh and the workspace connectors.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .repogov.yaml)")
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(detectCmd)
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logCfg := logging.NewDefaultConfig()
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// identity resolves the governed repository's org and name. Explicit
// configuration wins; the origin remote fills the gaps.
func identity(cfg *config.Config) (org, repo string) {
	org, repo = cfg.GitHub.Org, cfg.GitHub.Repo
	if org != "" && repo != "" {
		return org, repo
	}
	discovered := gitinfo.Discover(cfg.Paths.Root)
	if org == "" {
		org = discovered.Org
	}
	if repo == "" {
		repo = discovered.Repo
	}
	return org, repo
}
