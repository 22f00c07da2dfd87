package commands

import (
	"fmt"
	"strings"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/log"
	"github.com/spf13/cobra"
)

func Agenda(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "agenda EVENT_URL",
		Short: "Show the talks of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contributions, err := fetchAgenda(cmd, deps, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range contributions {
				line := c.Start.Format("2006-01-02 15:04") + "  " + c.Title
				if len(c.Speakers) > 0 {
					line += " (" + strings.Join(c.Speakers, ", ") + ")"
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func fetchAgenda(cmd *cobra.Command, deps *Deps, eventURL string) ([]domain.Contribution, error) {
	provider, err := deps.Agenda()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	var contributions []domain.Contribution
	err = log.WithSpinner("Fetching agenda...", func() error {
		var err error
		contributions, err = provider.Contributions(cmd.Context(), eventURL)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get agenda: %w", err)
	}

	return contributions, nil
}
