package commands

import (
	"fmt"
	"time"

	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func Generate(deps *Deps) *cobra.Command {
	var (
		sinceStr, nowStr string
		opts             outputOptions
	)

	cmd := &cobra.Command{
		Use:   "generate SPEC_FILE",
		Short: "Collect repository activity and render the meeting document",
		Long: `Collect pull requests and issues of every repository listed in SPEC_FILE,
fetch the event agenda when --event is given, and render the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			window, err := parseWindow(sinceStr, nowStr, time.Now())
			if err != nil {
				return fmt.Errorf("failed to parse dates: %w", err)
			}

			return generate(cmd, deps, args[0], window, &opts)
		},
	}

	cmd.Flags().StringVar(&sinceStr, "since", "", "Start of the reporting window (ISO 8601 date)")
	cmd.Flags().StringVar(&nowStr, "now", "", "End of the reporting window (ISO 8601 date, defaults to today)")
	opts.register(cmd)

	return cmd
}

func generate(cmd *cobra.Command, deps *Deps, specPath string, window domain.Window, opts *outputOptions) error {
	specs, err := config.LoadSpec(specPath)
	if err != nil {
		return err
	}

	appInstance, err := deps.App()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	var (
		result        domain.Result
		contributions []domain.Contribution
	)

	err = log.WithSpinner("Collecting repository activity...", func() error {
		g, ctx := errgroup.WithContext(cmd.Context())

		g.Go(func() error {
			var err error
			result, err = appInstance.Collect(ctx, specs, window)

			return err
		})

		g.Go(func() error {
			var err error
			contributions, err = appInstance.Agenda(ctx, opts.event)

			return err
		})

		return g.Wait()
	})
	if err != nil {
		return fmt.Errorf("failed to collect: %w", err)
	}

	doc := &domain.Document{
		Specs:         specs,
		Result:        result,
		Window:        window,
		Contributions: contributions,
		Full:          opts.full,
	}

	return writeDocument(cmd.OutOrStdout(), doc, opts)
}
