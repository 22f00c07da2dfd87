// Package event resolves agenda event URLs into their export locations.
package event

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"

	"github.com/denchenko/mtng/internal/core/domain"
)

// DefaultExportURL is the Indico JSON export of an event with its talks.
const DefaultExportURL = "https://{{.Host}}/export/event/{{.ID}}.json?detail=contributions"

// Ref identifies an event on an agenda server.
type Ref struct {
	Host string
	ID   string
}

// Resolver handles event reference extraction and export URL generation.
type Resolver struct {
	exportTemplate *template.Template
	eventRegexp    *regexp.Regexp
}

// NewResolver creates a new Resolver with the given export URL template.
// An empty template selects DefaultExportURL.
func NewResolver(exportTemplate string) (*Resolver, error) {
	if exportTemplate == "" {
		exportTemplate = DefaultExportURL
	}

	tmpl, err := template.New("exportURL").Option("missingkey=error").Parse(exportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export URL template: %w", err)
	}

	return &Resolver{
		exportTemplate: tmpl,
		eventRegexp:    regexp.MustCompile(`^https?://([^/]+)/event/(\d+)(?:/|$)`),
	}, nil
}

// Parse extracts the host and numeric id from an event page URL.
func (r *Resolver) Parse(eventURL string) (Ref, error) {
	matches := r.eventRegexp.FindStringSubmatch(eventURL)
	if matches == nil {
		return Ref{}, fmt.Errorf("%w: %q", domain.ErrInvalidEvent, eventURL)
	}

	return Ref{Host: matches[1], ID: matches[2]}, nil
}

// ExportURL generates the export document URL for an event page URL.
func (r *Resolver) ExportURL(eventURL string) (string, error) {
	ref, err := r.Parse(eventURL)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.exportTemplate.Execute(&buf, ref); err != nil {
		return "", fmt.Errorf("failed to execute export URL template: %w", err)
	}

	return buf.String(), nil
}
