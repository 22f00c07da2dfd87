package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denchenko/mtng/internal/adapters/secondary/cache"
	"github.com/denchenko/mtng/internal/adapters/secondary/source/mocks"
	"github.com/denchenko/mtng/internal/config"
	"github.com/denchenko/mtng/internal/core/app"
	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSpec = `repos:
  - name: org/repo
    filter_labels: [Infrastructure]
`

func writeSpec(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "spec.yml")
	require.NoError(t, os.WriteFile(path, []byte(testSpec), 0o600))

	return path
}

func testDeps(source *mocks.MockSource, agenda *mocks.MockAgendaProvider) *Deps {
	return &Deps{
		Config: &config.Config{},
		App: func() (*app.App, error) {
			return app.NewApp(source, agenda, nil), nil
		},
		Agenda: func() (app.AgendaProvider, error) {
			return agenda, nil
		},
		Cache: func() (cache.Maintainer, error) {
			return cache.NewInMemoryCache(), nil
		},
	}
}

func emptySource() *mocks.MockSource {
	source := &mocks.MockSource{}
	source.On("SearchItems", mock.Anything, mock.Anything).Return([]*domain.Item{}, nil)

	return source
}

func TestParseWindow(t *testing.T) {
	today := time.Date(2022, 8, 11, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		sinceStr    string
		nowStr      string
		today       time.Time
		expected    domain.Window
		expectError bool
	}{
		{
			name:     "now defaults to today",
			sinceStr: "2022-08-01",
			expected: domain.Window{
				Since: time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC),
				Now:   time.Date(2022, 8, 11, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "now defaults to the UTC date",
			sinceStr: "2022-08-01",
			today:    time.Date(2022, 8, 11, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			expected: domain.Window{
				Since: time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC),
				Now:   time.Date(2022, 8, 12, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "explicit now",
			sinceStr: "2022-08-01",
			nowStr:   "2022-08-04",
			expected: domain.Window{
				Since: time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC),
				Now:   time.Date(2022, 8, 4, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "single day window",
			sinceStr: "2022-08-04",
			nowStr:   "2022-08-04",
			expected: domain.Window{
				Since: time.Date(2022, 8, 4, 0, 0, 0, 0, time.UTC),
				Now:   time.Date(2022, 8, 4, 0, 0, 0, 0, time.UTC),
			},
		},
		{name: "missing since", expectError: true},
		{name: "invalid since", sinceStr: "01.08.2022", expectError: true},
		{name: "invalid now", sinceStr: "2022-08-01", nowStr: "tomorrow", expectError: true},
		{name: "now before since", sinceStr: "2022-08-05", nowStr: "2022-08-01", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := today
			if !tt.today.IsZero() {
				current = tt.today
			}

			window, err := parseWindow(tt.sinceStr, tt.nowStr, current)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, window)
			}
		})
	}
}

func TestOutputOptions_Validate(t *testing.T) {
	tests := []struct {
		name        string
		opts        outputOptions
		expectError bool
	}{
		{name: "latex", opts: outputOptions{format: "latex"}},
		{name: "markdown preview", opts: outputOptions{format: "markdown", preview: true}},
		{name: "open with output", opts: outputOptions{format: "latex", output: "out.tex", open: true}},
		{name: "unknown format", opts: outputOptions{format: "html"}, expectError: true},
		{name: "open without output", opts: outputOptions{format: "latex", open: true}, expectError: true},
		{name: "latex preview", opts: outputOptions{format: "latex", preview: true}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	source := emptySource()
	agenda := &mocks.MockAgendaProvider{}
	agenda.On("Contributions", mock.Anything, "https://indico.example.org/event/1").Return([]domain.Contribution{{
		Title: "Roadmap",
		Start: time.Date(2022, 8, 11, 9, 0, 0, 0, time.UTC),
		URL:   "https://indico.example.org/event/1/contributions/2",
	}}, nil)

	cmd := Generate(testDeps(source, agenda))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		writeSpec(t),
		"--since", "2022-08-01",
		"--now", "2022-08-11",
		"--event", "https://indico.example.org/event/1",
		"--format", "markdown",
		"--full",
	})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "# Meeting 2022-08-11")
	assert.Contains(t, out.String(), "09:00 [Roadmap]")
	assert.Contains(t, out.String(), "## org/repo: merged since 2022-08-01")
	assert.Contains(t, out.String(), "## org/repo: open pull requests")
	source.AssertNumberOfCalls(t, "SearchItems", 2)
	agenda.AssertExpectations(t)
}

func TestGenerate_WritesOutputFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "slides.tex")

	cmd := Generate(testDeps(emptySource(), &mocks.MockAgendaProvider{}))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{writeSpec(t), "--since", "2022-08-01", "--now", "2022-08-11", "--output", output})

	require.NoError(t, cmd.Execute())

	assert.Empty(t, out.String())

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(written), `\begin{frame}[allowframebreaks]{org/repo: merged since 2022-08-01}`)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		source := &mocks.MockSource{}
		source.On("SearchItems", mock.Anything, mock.Anything).Return(nil, domain.ErrAuthentication)

		cmd := Generate(testDeps(source, &mocks.MockAgendaProvider{}))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{writeSpec(t), "--since", "2022-08-01", "--now", "2022-08-11"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAuthentication)
	})

	t.Run("initialization failure", func(t *testing.T) {
		deps := testDeps(nil, nil)
		deps.App = func() (*app.App, error) {
			return nil, config.ErrMissingToken
		}

		cmd := Generate(deps)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{writeSpec(t), "--since", "2022-08-01"})

		assert.ErrorIs(t, cmd.Execute(), config.ErrMissingToken)
	})

	t.Run("missing since", func(t *testing.T) {
		cmd := Generate(testDeps(emptySource(), nil))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{writeSpec(t)})

		assert.Error(t, cmd.Execute())
	})
}

func TestCollectThenRender(t *testing.T) {
	merged := time.Date(2022, 8, 3, 10, 0, 0, 0, time.UTC)
	pr := &domain.Item{
		Kind:     domain.KindPullRequest,
		Number:   7,
		Title:    "Speed up parser",
		User:     domain.User{Login: "alice"},
		HTMLURL:  "https://github.com/org/repo/pull/7",
		MergedAt: &merged,
	}

	source := &mocks.MockSource{}
	source.On("SearchItems", mock.Anything, mock.MatchedBy(func(q query.Query) bool {
		return q.Merged != nil
	})).Return([]*domain.Item{{Kind: domain.KindPullRequest, Number: 7, User: domain.User{Login: "alice"}}}, nil)
	source.On("SearchItems", mock.Anything, mock.Anything).Return([]*domain.Item{}, nil)
	source.On("GetPullRequest", mock.Anything, "org/repo", 7).Return(pr, nil)
	source.On("ListReviews", mock.Anything, "org/repo", 7).Return([]domain.Review{}, nil)

	deps := testDeps(source, &mocks.MockAgendaProvider{})
	specPath := writeSpec(t)
	snapshotPath := filepath.Join(t.TempDir(), "snapshot.json")

	collectCmd := Collect(deps)
	collectCmd.SetOut(&bytes.Buffer{})
	collectCmd.SetArgs([]string{specPath, "--since", "2022-08-01", "--now", "2022-08-11", "--out", snapshotPath})
	require.NoError(t, collectCmd.Execute())

	snapshot, err := readSnapshot(snapshotPath)
	require.NoError(t, err)
	assert.Equal(t, "2022-08-01", snapshot.Window.SinceDate())
	require.Contains(t, snapshot.Repos, "org/repo")
	require.Len(t, snapshot.Repos["org/repo"].MergedPRs, 1)

	renderDeps := testDeps(nil, nil)
	renderDeps.App = func() (*app.App, error) {
		return nil, errors.New("render must not build the app")
	}

	renderCmd := Render(renderDeps)

	var out bytes.Buffer
	renderCmd.SetOut(&out)
	renderCmd.SetArgs([]string{specPath, "--from", snapshotPath, "--format", "markdown"})
	require.NoError(t, renderCmd.Execute())

	assert.Contains(t, out.String(), "- `merged` [#7](https://github.com/org/repo/pull/7) Speed up parser by **alice**")
}

func TestRender_RequiresSnapshot(t *testing.T) {
	cmd := Render(testDeps(nil, nil))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeSpec(t)})

	assert.Error(t, cmd.Execute())
}

func TestAgenda(t *testing.T) {
	agenda := &mocks.MockAgendaProvider{}
	agenda.On("Contributions", mock.Anything, "https://indico.example.org/event/1").Return([]domain.Contribution{
		{Title: "Roadmap", Speakers: []string{"Ann Lee"}, Start: time.Date(2022, 8, 11, 9, 0, 0, 0, time.UTC)},
		{Title: "Q&A", Start: time.Date(2022, 8, 11, 9, 30, 0, 0, time.UTC)},
	}, nil)

	cmd := Agenda(testDeps(nil, agenda))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"https://indico.example.org/event/1"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "2022-08-11 09:00  Roadmap (Ann Lee)\n2022-08-11 09:30  Q&A\n", out.String())
}

func TestCache(t *testing.T) {
	store := cache.NewInMemoryCache()
	require.NoError(t, store.Put("live", []byte("1"), time.Hour))

	deps := testDeps(nil, nil)
	deps.Cache = func() (cache.Maintainer, error) {
		return store, nil
	}

	var out bytes.Buffer

	pruneCmd := Cache(deps)
	pruneCmd.SetOut(&out)
	pruneCmd.SetArgs([]string{"prune"})
	require.NoError(t, pruneCmd.Execute())
	assert.Equal(t, "Removed 0 expired entries\n", out.String())

	out.Reset()

	clearCmd := Cache(deps)
	clearCmd.SetOut(&out)
	clearCmd.SetArgs([]string{"clear"})
	require.NoError(t, clearCmd.Execute())
	assert.Equal(t, "Cache cleared\n", out.String())

	_, ok, err := store.Get("live")
	require.NoError(t, err)
	assert.False(t, ok)
}
