package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/log"
	"github.com/spf13/cobra"
)

func Collect(deps *Deps) *cobra.Command {
	var sinceStr, nowStr, out string

	cmd := &cobra.Command{
		Use:   "collect SPEC_FILE",
		Short: "Collect repository activity into a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(sinceStr, nowStr, time.Now())
			if err != nil {
				return fmt.Errorf("failed to parse dates: %w", err)
			}

			return collect(cmd, deps, args[0], window, out)
		},
	}

	cmd.Flags().StringVar(&sinceStr, "since", "", "Start of the reporting window (ISO 8601 date)")
	cmd.Flags().StringVar(&nowStr, "now", "", "End of the reporting window (ISO 8601 date, defaults to today)")
	cmd.Flags().StringVar(&out, "out", "", "Snapshot file to write (stdout when empty)")

	return cmd
}

func collect(cmd *cobra.Command, deps *Deps, specPath string, window domain.Window, out string) error {
	specs, err := config.LoadSpec(specPath)
	if err != nil {
		return err
	}

	appInstance, err := deps.App()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	var result domain.Result
	err = log.WithSpinner("Collecting repository activity...", func() error {
		var err error
		result, err = appInstance.Collect(cmd.Context(), specs, window)

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to collect: %w", err)
	}

	data, err := json.MarshalIndent(domain.Snapshot{Window: window, Repos: result}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = cmd.OutOrStdout().Write(data)

		return err
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

func readSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	return &snapshot, nil
}
