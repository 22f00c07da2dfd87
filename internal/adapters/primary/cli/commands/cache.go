package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func Cache(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached response",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := deps.Cache()
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}

				if err := c.Clear(); err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")

				return err
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Delete expired cached responses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := deps.Cache()
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}

				removed, err := c.Prune()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", removed)

				return err
			},
		},
	)

	return cmd
}
