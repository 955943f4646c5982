// Package main is the hospital-poller CLI.
//
// Usage:
//
//	hospital-poller watch --hospital h-1 --feeds resources,bookings
//	hospital-poller watch --file feeds.yaml --redis
//	hospital-poller config --hospital h-1
//	hospital-poller health --wait 30s
//	hospital-poller version
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/poll"
)

// set at build time via ldflags
var (
	version = "dev"
	commit  = "none"
)

// globalFlags override values loaded from the environment.
type globalFlags struct {
	envFile string
	baseURL string
	token   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "hospital-poller",
		Short: "Adaptive polling client for hospital resource and booking feeds",
		Long: `hospital-poller watches hospital polling endpoints and prints every
update. Intervals adapt to the server's recommendations and back off
exponentially on failures.

Configuration comes from POLL_* environment variables, optionally loaded
from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.envFile == "" {
				// .env is optional
				_ = godotenv.Load()
				return nil
			}
			if err := godotenv.Load(g.envFile); err != nil {
				return fmt.Errorf("failed to load env file: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "path to a .env file")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "API base URL (overrides POLL_BASE_URL)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "bearer token (overrides POLL_AUTH_TOKEN)")

	root.AddCommand(
		newWatchCmd(&g),
		newConfigCmd(&g),
		newHealthCmd(&g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hospital-poller %s (commit %s)\n", version, commit)
		},
	}
}

// loadConfig reads the poller config and applies flag overrides.
func loadConfig(g *globalFlags) (*config.PollerConfig, error) {
	cfg, err := config.LoadPollerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if g.baseURL != "" {
		cfg.Poll.BaseURL = g.baseURL
		if err := cfg.Poll.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	if g.token != "" {
		cfg.AuthToken = g.token
	}
	return cfg, nil
}

func newClient(cfg *config.PollerConfig, log *logger.CanonicalLogger) (*poll.Client, error) {
	client, err := poll.NewClient(cfg.Poll, log)
	if err != nil {
		return nil, err
	}
	client.SetAuthToken(cfg.AuthToken)
	return client, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
