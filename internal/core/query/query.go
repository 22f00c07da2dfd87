// Package query builds the search predicates issued against a remote source.
package query

import (
	"net/url"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Kind restricts a query to issues, pull requests or both.
type Kind string

const (
	KindAny         Kind = "any"
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pr"
)

// DateRange is an inclusive range with day granularity.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) String() string {
	return r.From.Format(dateLayout) + ".." + r.To.Format(dateLayout)
}

// Contains reports whether t falls on a day within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := t.Format(dateLayout)

	return day >= r.From.Format(dateLayout) && day <= r.To.Format(dateLayout)
}

// Query is a structured search predicate. Adapters either send its GitHub
// search form or translate the fields into their own list options.
type Query struct {
	Repo           string
	Kind           Kind
	Open           bool
	Merged         *DateRange
	Created        *DateRange
	Labels         []string
	ExcludedLabels []string
}

// MergedPulls matches pull requests merged within the range.
func MergedPulls(repo string, merged DateRange, labels, excluded []string) Query {
	return Query{
		Repo:           repo,
		Kind:           KindPullRequest,
		Merged:         &merged,
		Labels:         labels,
		ExcludedLabels: excluded,
	}
}

// OpenItems matches currently open items of the given kind, optionally
// restricted to a creation range.
func OpenItems(repo string, kind Kind, created *DateRange, labels, excluded []string) Query {
	return Query{
		Repo:           repo,
		Kind:           kind,
		Open:           true,
		Created:        created,
		Labels:         labels,
		ExcludedLabels: excluded,
	}
}

// String renders the query in GitHub search syntax with raw label values.
func (q Query) String() string {
	return strings.Join(q.terms(quote), " ")
}

// Encode renders the query as the value of a q= URL parameter, with terms
// joined by '+' and label values percent-encoded inside encoded quotes.
func (q Query) Encode() string {
	return strings.Join(q.terms(func(s string) string {
		return "%22" + url.QueryEscape(s) + "%22"
	}), "+")
}

func (q Query) terms(label func(string) string) []string {
	terms := []string{"repo:" + q.Repo}

	switch q.Kind {
	case KindPullRequest:
		terms = append(terms, "is:pr")
	case KindIssue:
		terms = append(terms, "is:issue")
	case KindAny:
	}

	if q.Open {
		terms = append(terms, "is:open")
	}
	if q.Merged != nil {
		terms = append(terms, "merged:"+q.Merged.String())
	}
	if q.Created != nil {
		terms = append(terms, "created:"+q.Created.String())
	}
	for _, name := range q.Labels {
		terms = append(terms, "label:"+label(name))
	}
	for _, name := range q.ExcludedLabels {
		terms = append(terms, "-label:"+label(name))
	}

	return terms
}

func quote(s string) string {
	return `"` + s + `"`
}
