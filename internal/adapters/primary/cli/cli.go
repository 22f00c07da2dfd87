package cli

import (
	"github.com/denchenko/mtng/internal/adapters/primary/cli/commands"
	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/app"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Command creates and returns the root CLI command.
func Command(i do.Injector) (*cobra.Command, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}

	deps := &commands.Deps{
		Config: cfg,
		App: func() (*app.App, error) {
			return do.Invoke[*app.App](i)
		},
		Agenda: func() (app.AgendaProvider, error) {
			return do.Invoke[app.AgendaProvider](i)
		},
		Cache: func() (cache.Maintainer, error) {
			return do.Invoke[*cache.DiskCache](i)
		},
	}

	return NewRootCommand(deps), nil
}

// NewRootCommand assembles the command tree around deps.
func NewRootCommand(deps *commands.Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mtng",
		Long:          `A CLI tool for preparing status meeting slides from repository activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&deps.Config.NoCache, "no-cache", deps.Config.NoCache,
		"Keep responses in memory only instead of the cache directory")

	cmd.AddCommand(
		commands.Generate(deps),
		commands.Collect(deps),
		commands.Render(deps),
		commands.Agenda(deps),
		commands.Cache(deps),
	)

	return cmd
}
