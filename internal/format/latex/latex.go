package latex

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/format"
)

//go:embed document.tmpl
var documentTemplate string

var (
	escaper = strings.NewReplacer(
		`\`, `\textbackslash{}`,
		`{`, `\{`,
		`}`, `\}`,
		`_`, `\_`,
		`#`, `\#`,
		`&`, `\&`,
		`%`, `\%`,
		`$`, `\$`,
		`^`, `\textasciicircum{}`,
		`~`, `\textasciitilde{}`,
		`<`, `\textless{}`,
		`>`, `\textgreater{}`,
	)

	urlEscaper = strings.NewReplacer(
		`%`, `\%`,
		`#`, `\#`,
	)
)

// section is one frame: a titled list of items of a repository.
type section struct {
	Title string
	Spec  *domain.RepoSpec
	Items []*domain.Item
}

// Escape makes arbitrary text safe to place in a LaTeX document.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Render renders the document as Beamer frames. With doc.Full set the
// frames are wrapped in a complete document.
func Render(doc *domain.Document) (string, error) {
	tmpl, err := template.New("document").Delims("<<", ">>").Funcs(getTemplateFuncs()).Parse(documentTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, format.NewData(doc)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"esc":      Escape,
		"url":      urlEscaper.Replace,
		"join":     func(s []string) string { return strings.Join(s, ", ") },
		"logins":   format.Logins,
		"assignee": format.Assignee,
		"link":     format.Link,
		"verdicts": format.Verdicts,
		"marker":   marker,
		"state":    stateName,
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
		return `\prmerged{}`
	case item.IsPullRequest() && item.IsWIP:
		return `\prwip{}`
	case item.IsStale:
		return `\prstale{}`
	case item.IsPullRequest():
		return `\propen{}`
	default:
		return `\iss{}`
	}
}

func stateName(state domain.ReviewState) string {
	return strings.ReplaceAll(strings.ToLower(string(state)), "_", " ")
}
