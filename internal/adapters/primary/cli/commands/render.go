package commands

import (
	"errors"
	"fmt"

	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/spf13/cobra"
)

func Render(deps *Deps) *cobra.Command {
	var (
		from string
		opts outputOptions
	)

	cmd := &cobra.Command{
		Use:   "render SPEC_FILE",
		Short: "Render a snapshot written by collect",
		Long: `Render a snapshot written by collect without querying the repositories.
SPEC_FILE decides the repository order and which sections are shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return errors.New("--from is required")
			}
			if err := opts.validate(); err != nil {
				return err
			}

			return render(cmd, deps, args[0], from, &opts)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Snapshot file to render")
	opts.register(cmd)

	return cmd
}

func render(cmd *cobra.Command, deps *Deps, specPath, from string, opts *outputOptions) error {
	specs, err := config.LoadSpec(specPath)
	if err != nil {
		return err
	}

	snapshot, err := readSnapshot(from)
	if err != nil {
		return err
	}

	contributions := []domain.Contribution{}
	if opts.event != "" {
		contributions, err = fetchAgenda(cmd, deps, opts.event)
		if err != nil {
			return err
		}
	}

	doc := &domain.Document{
		Specs:         specs,
		Result:        snapshot.Repos,
		Window:        snapshot.Window,
		Contributions: contributions,
		Full:          opts.full,
	}

	if err := writeDocument(cmd.OutOrStdout(), doc, opts); err != nil {
		return fmt.Errorf("failed to render snapshot: %w", err)
	}

	return nil
}
