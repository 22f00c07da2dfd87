package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/denchenko/mtng/internal/core/domain"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

type repoEntry struct {
	Name                 string   `yaml:"name" toml:"name"`
	WIPLabel             string   `yaml:"wip_label" toml:"wip_label"`
	ShowWIP              *bool    `yaml:"show_wip" toml:"show_wip"`
	FilterLabels         []string `yaml:"filter_labels" toml:"filter_labels"`
	StaleLabel           string   `yaml:"stale_label" toml:"stale_label"`
	DoStale              *bool    `yaml:"do_stale" toml:"do_stale"`
	NeedsDiscussionLabel string   `yaml:"needs_discussion_label" toml:"needs_discussion_label"`
	DoOpenPRs            *bool    `yaml:"do_open_prs" toml:"do_open_prs"`
	DoMergedPRs          *bool    `yaml:"do_merged_prs" toml:"do_merged_prs"`
	DoRecentIssues       *bool    `yaml:"do_recent_issues" toml:"do_recent_issues"`
	ShowAssignee         *bool    `yaml:"show_assignee" toml:"show_assignee"`
	ShowReviewers        *bool    `yaml:"show_reviewers" toml:"show_reviewers"`
}

type specFile struct {
	Repos []repoEntry `yaml:"repos" toml:"repos"`
}

// LoadSpec reads and validates a repository spec file. The format is chosen
// from the file extension.
func LoadSpec(path string) ([]*domain.RepoSpec, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spec file: %w", err)
	}
	defer f.Close()

	return ParseSpec(f, format)
}

// ParseSpec decodes a spec document. Unknown keys are rejected.
func ParseSpec(r io.Reader, format string) ([]*domain.RepoSpec, error) {
	var file specFile

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)

		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSpec, err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&file)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSpec, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}

			return nil, fmt.Errorf("%w: unknown keys %s", domain.ErrInvalidSpec, strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidSpec, format)
	}

	specs := make([]*domain.RepoSpec, 0, len(file.Repos))
	for _, entry := range file.Repos {
		specs = append(specs, entry.toRepoSpec())
	}

	spec := domain.Spec{Repos: specs}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return specs, nil
}

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unsupported spec file extension %q", domain.ErrInvalidSpec, ext)
	}
}

func (e repoEntry) toRepoSpec() *domain.RepoSpec {
	spec := domain.NewRepoSpec(e.Name)
	spec.WIPLabel = e.WIPLabel
	spec.StaleLabel = e.StaleLabel
	spec.NeedsDiscussionLabel = e.NeedsDiscussionLabel
	spec.DoStale = e.StaleLabel != ""

	if e.FilterLabels != nil {
		spec.FilterLabels = e.FilterLabels
	}

	setBool(&spec.ShowWIP, e.ShowWIP)
	setBool(&spec.DoStale, e.DoStale)
	setBool(&spec.DoOpenPRs, e.DoOpenPRs)
	setBool(&spec.DoMergedPRs, e.DoMergedPRs)
	setBool(&spec.DoRecentIssues, e.DoRecentIssues)
	setBool(&spec.ShowAssignee, e.ShowAssignee)
	setBool(&spec.ShowReviewers, e.ShowReviewers)

	return spec
}

func setBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}
