package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/app"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/format"
	"github.com/denchenko/mtng/internal/format/latex"
	"github.com/denchenko/mtng/internal/format/markdown"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

const iso8601DateOnlyFormat = "2006-01-02"

// Deps resolves command dependencies on first use, so that commands which
// never touch the network run without credentials.
type Deps struct {
	Config *config.Config
	App    func() (*app.App, error)
	Agenda func() (app.AgendaProvider, error)
	Cache  func() (cache.Maintainer, error)
}

// outputOptions are the rendering flags shared by generate and render.
type outputOptions struct {
	event   string
	full    bool
	format  string
	output  string
	open    bool
	preview bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.event, "event", "", "Event URL to take the agenda from")
	cmd.Flags().BoolVar(&o.full, "full", false, "Render a complete document instead of a fragment")
	cmd.Flags().StringVar(&o.format, "format", format.LaTeX, "Output format: latex or markdown")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().BoolVar(&o.open, "open", false, "Open the written file with the default application")
	cmd.Flags().BoolVar(&o.preview, "preview", false, "Render markdown output for the terminal")
}

func (o *outputOptions) validate() error {
	switch o.format {
	case format.LaTeX, format.Markdown:
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	if o.open && o.output == "" {
		return errors.New("--open requires --output")
	}
	if o.preview && o.format != format.Markdown {
		return errors.New("--preview requires --format markdown")
	}

	return nil
}

// writeDocument renders doc and writes it to the configured destination.
func writeDocument(w io.Writer, doc *domain.Document, opts *outputOptions) error {
	var (
		rendered string
		err      error
	)

	switch opts.format {
	case format.Markdown:
		rendered, err = markdown.Render(doc)
	default:
		rendered, err = latex.Render(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if opts.preview {
		preview, err := markdown.Preview(rendered, markdown.DefaultWidth)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, preview)

		return err
	}

	if opts.output == "" {
		_, err = fmt.Fprint(w, rendered)

		return err
	}

	if opts.open {
		if err := open.Start(opts.output); err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
	}

	return nil
}

// parseWindow parses the --since and --now flags. An empty now means today.
func parseWindow(sinceStr, nowStr string, today time.Time) (domain.Window, error) {
	var window domain.Window

	if sinceStr == "" {
		return window, errors.New("--since is required")
	}

	since, err := time.Parse(iso8601DateOnlyFormat, sinceStr)
	if err != nil {
		return window, fmt.Errorf("invalid --since date: %w", err)
	}
	window.Since = since

	if nowStr == "" {
		today = today.UTC()
		window.Now = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		now, err := time.Parse(iso8601DateOnlyFormat, nowStr)
		if err != nil {
			return window, fmt.Errorf("invalid --now date: %w", err)
		}
		window.Now = now
	}

	if err := window.Validate(); err != nil {
		return window, err
	}

	return window, nil
}
