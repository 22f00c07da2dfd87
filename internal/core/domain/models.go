package domain

import "time"

type User struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

type Label struct {
	Name string `json:"name"`
}

// ReviewState is the verdict of a single pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewDismissed        ReviewState = "DISMISSED"
)

type Review struct {
	User        User        `json:"user"`
	State       ReviewState `json:"state"`
	Body        string      `json:"body"`
	SubmittedAt *time.Time  `json:"submitted_at"`
}

// ItemKind discriminates plain issues from pull requests.
type ItemKind string

const (
	KindIssue       ItemKind = "issue"
	KindPullRequest ItemKind = "pull_request"
)

// Item is an issue or a pull request. RequestedReviewers and Reviews are only
// populated for pull requests that went through the detail fetch.
type Item struct {
	Kind      ItemKind   `json:"kind"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	User      User       `json:"user"`
	Labels    []Label    `json:"labels"`
	URL       string     `json:"url"`
	HTMLURL   string     `json:"html_url"`
	Assignee  *User      `json:"assignee"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	MergedAt  *time.Time `json:"merged_at"`
	Draft     bool       `json:"draft"`

	IsWIP   bool `json:"is_wip"`
	IsStale bool `json:"is_stale"`

	RequestedReviewers []User   `json:"requested_reviewers"`
	Reviews            []Review `json:"reviews"`
}

// IsPullRequest reports whether the item is a pull request.
func (i *Item) IsPullRequest() bool {
	return i.Kind == KindPullRequest
}

// IsOpen reports whether the item has not been closed.
func (i *Item) IsOpen() bool {
	return i.ClosedAt == nil
}

// HasLabel reports whether a label with the given name is attached.
// An empty name never matches.
func (i *Item) HasLabel(name string) bool {
	if name == "" {
		return false
	}

	for _, label := range i.Labels {
		if label.Name == name {
			return true
		}
	}

	return false
}

// HasAnyLabel reports whether any of the given label names is attached.
func (i *Item) HasAnyLabel(names []string) bool {
	for _, name := range names {
		if i.HasLabel(name) {
			return true
		}
	}

	return false
}

// ApprovalCount returns the number of approving reviews.
func (i *Item) ApprovalCount() int {
	count := 0
	for _, review := range i.Reviews {
		if review.State == ReviewApproved {
			count++
		}
	}

	return count
}

// Bundle holds the classified buckets collected for one repository.
type Bundle struct {
	MergedPRs       []*Item   `json:"merged_prs"`
	OpenPRs         []*Item   `json:"open_prs"`
	Stale           []*Item   `json:"stale"`
	RecentIssues    []*Item   `json:"recent_issues"`
	NeedsDiscussion []*Item   `json:"needs_discussion"`
	Spec            *RepoSpec `json:"spec"`
}

// NewBundle returns a bundle with every bucket explicitly empty.
func NewBundle(spec *RepoSpec) *Bundle {
	return &Bundle{
		MergedPRs:       []*Item{},
		OpenPRs:         []*Item{},
		Stale:           []*Item{},
		RecentIssues:    []*Item{},
		NeedsDiscussion: []*Item{},
		Spec:            spec,
	}
}

// Result maps a repository name to its bundle.
type Result map[string]*Bundle

// Snapshot is a collected result together with the window it was taken for.
type Snapshot struct {
	Window Window `json:"window"`
	Repos  Result `json:"repos"`
}

// Contribution is a single talk of an event agenda.
type Contribution struct {
	Title    string    `json:"title"`
	Speakers []string  `json:"speakers"`
	Start    time.Time `json:"start"`
	URL      string    `json:"url"`
}

// Document is everything a renderer needs to produce output.
type Document struct {
	Specs         []*RepoSpec
	Result        Result
	Window        Window
	Contributions []Contribution
	Full          bool
}
