// Package format holds the view model shared by the output renderers.
package format

import (
	"strings"

	"github.com/denchenko/mtng/internal/core/domain"
)

const (
	LaTeX    = "latex"
	Markdown = "markdown"

	noAssignee = "no assignee"
)

// RepoView pairs a repository spec with its collected bundle.
type RepoView struct {
	Spec   *domain.RepoSpec
	Bundle *domain.Bundle
}

// Verdict is the latest review state of one reviewer.
type Verdict struct {
	Login string
	State domain.ReviewState
}

// Data is the template input of every renderer.
type Data struct {
	Repos         []RepoView
	Since         string
	Now           string
	Contributions []domain.Contribution
	Full          bool
}

// NewData orders the result by the spec list. Repositories without a
// bundle are skipped.
func NewData(doc *domain.Document) Data {
	repos := make([]RepoView, 0, len(doc.Specs))
	for _, spec := range doc.Specs {
		bundle, ok := doc.Result[spec.Name]
		if !ok || bundle == nil {
			continue
		}
		repos = append(repos, RepoView{Spec: spec, Bundle: bundle})
	}

	return Data{
		Repos:         repos,
		Since:         doc.Window.SinceDate(),
		Now:           doc.Window.NowDate(),
		Contributions: doc.Contributions,
		Full:          doc.Full,
	}
}

// Verdicts reduces reviews to one entry per reviewer in order of first
// appearance. A later approval or change request replaces an earlier state;
// comments only count when nothing else was submitted.
func Verdicts(reviews []domain.Review) []Verdict {
	verdicts := make([]Verdict, 0, len(reviews))
	index := make(map[string]int, len(reviews))

	for _, review := range reviews {
		login := review.User.Login
		i, seen := index[login]
		if !seen {
			index[login] = len(verdicts)
			verdicts = append(verdicts, Verdict{Login: login, State: review.State})

			continue
		}

		if review.State != domain.ReviewCommented {
			verdicts[i].State = review.State
		}
	}

	return verdicts
}

// Logins joins user logins with a comma.
func Logins(users []domain.User) string {
	logins := make([]string, 0, len(users))
	for _, user := range users {
		logins = append(logins, user.Login)
	}

	return strings.Join(logins, ", ")
}

// Assignee returns the assignee login or a placeholder.
func Assignee(item *domain.Item) string {
	if item.Assignee == nil || item.Assignee.Login == "" {
		return noAssignee
	}

	return item.Assignee.Login
}

// Link returns the browser URL of an item, falling back to the API URL.
func Link(item *domain.Item) string {
	if item.HTMLURL != "" {
		return item.HTMLURL
	}

	return item.URL
}
