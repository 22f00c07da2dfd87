package markdown

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/format"
)

//go:embed document.tmpl
var documentTemplate string

// DefaultWidth is the word wrap used by Preview when none is given.
const DefaultWidth = 100

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
)

type section struct {
	Title string
	Spec  *domain.RepoSpec
	Items []*domain.Item
}

// Escape neutralizes inline markdown in user provided text.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Render renders the document as markdown, one section per enabled bucket.
func Render(doc *domain.Document) (string, error) {
	tmpl, err := template.New("document").Funcs(getTemplateFuncs()).Parse(documentTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, format.NewData(doc)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// Preview renders markdown for a terminal.
func Preview(md string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}

	return out, nil
}

func getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"esc":      Escape,
		"join":     func(s []string) string { return strings.Join(s, ", ") },
		"logins":   format.Logins,
		"assignee": format.Assignee,
		"link":     format.Link,
		"verdicts": format.Verdicts,
		"marker":   marker,
		"state": func(state domain.ReviewState) string {
			return strings.ReplaceAll(strings.ToLower(string(state)), "_", " ")
		},
		"clock": func(t time.Time) string {
			return t.Format("15:04")
		},
		"section": func(title string, spec *domain.RepoSpec, items []*domain.Item) section {
			return section{Title: title, Spec: spec, Items: items}
		},
	}
}

func marker(item *domain.Item) string {
	switch {
	case item.MergedAt != nil:
		return "merged"
	case item.IsPullRequest() && item.IsWIP:
		return "wip"
	case item.IsStale:
		return "stale"
	case item.IsPullRequest():
		return "open"
	default:
		return "issue"
	}
}
