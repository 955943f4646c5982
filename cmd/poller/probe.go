package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/poll"
	"github.com/Alwanly/hospital-polling/pkg/retry"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	var hospitalID string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the server's polling configuration for a hospital",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLoggerFromEnv("hospital-poller")
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}
			defer client.Close()

			pc, err := client.GetPollingConfig(cmd.Context(), hospitalID)
			if err != nil {
				return fmt.Errorf("failed to get polling config: %w", err)
			}

			out, err := json.MarshalIndent(pc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&hospitalID, "hospital", "", "hospital id (required)")
	_ = cmd.MarkFlagRequired("hospital")
	return cmd
}

func newHealthCmd(g *globalFlags) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the polling API health",
		Long: `Check the polling API health once, or with --wait keep retrying with
exponential backoff until it is healthy or the wait elapses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLoggerFromEnv("hospital-poller")
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := checkHealth(cmd.Context(), client, wait, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (server time %s)\n", status.Status, status.Timestamp)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "keep retrying for up to this long")
	return cmd
}

// checkHealth probes once, or retries with backoff while wait > 0.
func checkHealth(ctx context.Context, client *poll.Client, wait time.Duration, log *logger.CanonicalLogger) (*poll.HealthStatus, error) {
	probe := func(ctx context.Context) (*poll.HealthStatus, error) {
		status, err := client.CheckHealth(ctx)
		if err != nil {
			return nil, err
		}
		if !status.Healthy() {
			return status, fmt.Errorf("server reports status %q", status.Status)
		}
		return status, nil
	}

	if wait <= 0 {
		return probe(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var status *poll.HealthStatus
	err := retry.WithExponentialBackoff(ctx, retry.Config{
		MaxRetries:     -1,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
		Jitter:         true,
	}, func(ctx context.Context) error {
		var err error
		status, err = probe(ctx)
		if err != nil {
			log.Debug("health probe failed", logger.String("error", err.Error()))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("server not healthy within %s: %w", wait, err)
	}
	return status, nil
}
