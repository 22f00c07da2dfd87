package core

import (
	"log/slog"

	"github.com/denchenko/mtng/internal/core/app"
	do "github.com/samber/do/v2"
)

var Package = do.Package(
	do.Lazy[*app.App](NewApp),
)

// NewApp creates a new App instance with dependencies from the injector.
func NewApp(i do.Injector) (*app.App, error) {
	source, err := do.Invoke[app.Source](i)
	if err != nil {
		return nil, err
	}

	agenda, err := do.Invoke[app.AgendaProvider](i)
	if err != nil {
		return nil, err
	}

	logger := do.MustInvoke[*slog.Logger](i)

	return app.NewApp(source, agenda, logger.With("component", "app")), nil
}
