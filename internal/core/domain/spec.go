package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var repoNameRegexp = regexp.MustCompile(`^[\w.-]+(/[\w.-]+)+$`)

// RepoSpec configures what is collected for a single repository.
// It is immutable for the duration of a run.
type RepoSpec struct {
	Name                 string   `json:"name"`
	WIPLabel             string   `json:"wip_label"`
	ShowWIP              bool     `json:"show_wip"`
	FilterLabels         []string `json:"filter_labels"`
	StaleLabel           string   `json:"stale_label"`
	NeedsDiscussionLabel string   `json:"needs_discussion_label"`
	DoStale              bool     `json:"do_stale"`
	DoOpenPRs            bool     `json:"do_open_prs"`
	DoMergedPRs          bool     `json:"do_merged_prs"`
	DoRecentIssues       bool     `json:"do_recent_issues"`
	ShowAssignee         bool     `json:"show_assignee"`
	ShowReviewers        bool     `json:"show_reviewers"`
}

// NewRepoSpec returns a spec for the named repository with default toggles:
// open and merged pull requests on, recent issues and stale tracking off,
// assignee and reviewers shown.
func NewRepoSpec(name string) *RepoSpec {
	return &RepoSpec{
		Name:          name,
		FilterLabels:  []string{},
		DoOpenPRs:     true,
		DoMergedPRs:   true,
		ShowAssignee:  true,
		ShowReviewers: true,
	}
}

// Validate checks the spec as a whole.
func (s *RepoSpec) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Match(repoNameRegexp)),
		validation.Field(&s.StaleLabel, validation.By(s.validateStaleLabel)),
		validation.Field(&s.FilterLabels, validation.By(validateLabelNames)),
	)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, s.Name, err)
	}

	return nil
}

func (s *RepoSpec) validateStaleLabel(value interface{}) error {
	label, _ := value.(string)
	if s.DoStale && label == "" {
		return errors.New("must be set to track stale items")
	}

	return nil
}

func validateLabelNames(value interface{}) error {
	labels, _ := value.([]string)
	for _, label := range labels {
		if label == "" {
			return errors.New("must not contain empty label names")
		}
	}

	return nil
}

// Spec is the full set of repositories for one run, in display order.
type Spec struct {
	Repos []*RepoSpec `json:"repos"`
}

// Validate validates every repository and rejects duplicate names.
func (s *Spec) Validate() error {
	if len(s.Repos) == 0 {
		return fmt.Errorf("%w: no repositories configured", ErrInvalidSpec)
	}

	seen := make(map[string]struct{}, len(s.Repos))
	for _, repo := range s.Repos {
		if repo == nil {
			return fmt.Errorf("%w: empty repository entry", ErrInvalidSpec)
		}
		if err := repo.Validate(); err != nil {
			return err
		}
		if _, ok := seen[repo.Name]; ok {
			return fmt.Errorf("%w: duplicate repository %q", ErrInvalidSpec, repo.Name)
		}
		seen[repo.Name] = struct{}{}
	}

	return nil
}

const dateLayout = "2006-01-02"

// Window is the period a run reports on.
type Window struct {
	Since time.Time `json:"since"`
	Now   time.Time `json:"now"`
}

// Validate rejects windows that end before they start.
func (w Window) Validate() error {
	if w.Since.IsZero() {
		return fmt.Errorf("%w: since is not set", ErrInvalidWindow)
	}
	if w.Now.Before(w.Since) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidWindow, w.NowDate(), w.SinceDate())
	}

	return nil
}

// SinceDate formats the window start with day granularity.
func (w Window) SinceDate() string {
	return w.Since.Format(dateLayout)
}

// NowDate formats the window end with day granularity.
func (w Window) NowDate() string {
	return w.Now.Format(dateLayout)
}
