package indico

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/denchenko/mtng/internal/core/domain"
	"github.com/denchenko/mtng/internal/event"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	startLayout = "2006-01-02 15:04:05"
	retryMax    = 3
)

var skippedTitles = []string{"Intro", "Introduction"}

type exportDocument struct {
	Results []struct {
		Contributions []contribution `json:"contributions"`
	} `json:"results"`
}

type contribution struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Speakers []struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"speakers"`
	StartDate *struct {
		Date string `json:"date"`
		Time string `json:"time"`
		TZ   string `json:"tz"`
	} `json:"startDate"`
}

// Provider implements app.AgendaProvider over the Indico JSON export.
type Provider struct {
	client   *retryablehttp.Client
	resolver *event.Resolver
	logger   *slog.Logger
}

// NewClient returns an HTTP client that retries transient failures and
// reports retries to logger.
func NewClient(logger *slog.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil

	if logger != nil {
		client.Logger = logger
	}

	return client
}

// NewProvider creates a new agenda provider.
func NewProvider(client *retryablehttp.Client, resolver *event.Resolver, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Provider{
		client:   client,
		resolver: resolver,
		logger:   logger,
	}
}

// Contributions fetches the talks of an event, without introductions,
// ordered by start time.
func (p *Provider) Contributions(ctx context.Context, eventURL string) ([]domain.Contribution, error) {
	exportURL, err := p.resolver.ExportURL(eventURL)
	if err != nil {
		return nil, err
	}

	doc, err := p.fetch(ctx, exportURL)
	if err != nil {
		return nil, err
	}

	contributions := make([]domain.Contribution, 0)
	if len(doc.Results) == 0 {
		return contributions, nil
	}

	for _, c := range doc.Results[0].Contributions {
		if slices.Contains(skippedTitles, c.Title) {
			continue
		}

		start, err := p.parseStart(c)
		if err != nil {
			return nil, err
		}

		speakers := make([]string, 0, len(c.Speakers))
		for _, s := range c.Speakers {
			speakers = append(speakers, strings.TrimSpace(s.FirstName+" "+s.LastName))
		}

		contributions = append(contributions, domain.Contribution{
			Title:    c.Title,
			Speakers: speakers,
			Start:    start,
			URL:      c.URL,
		})
	}

	slices.SortStableFunc(contributions, func(a, b domain.Contribution) int {
		return a.Start.Compare(b.Start)
	})

	return contributions, nil
}

func (p *Provider) fetch(ctx context.Context, exportURL string) (*exportDocument, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch event: unexpected status %d: %s", resp.StatusCode, body)
	}

	var doc exportDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode event: %w", domain.ErrMalformedRecord, err)
	}

	return &doc, nil
}

func (p *Provider) parseStart(c contribution) (time.Time, error) {
	if c.StartDate == nil {
		return time.Time{}, fmt.Errorf("%w: contribution %q has no start date", domain.ErrMalformedRecord, c.Title)
	}

	loc := time.UTC
	if c.StartDate.TZ != "" {
		l, err := time.LoadLocation(c.StartDate.TZ)
		if err != nil {
			p.logger.Warn("unknown time zone, using UTC", "tz", c.StartDate.TZ, "error", err)
		} else {
			loc = l
		}
	}

	start, err := time.ParseInLocation(startLayout, c.StartDate.Date+" "+c.StartDate.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: contribution %q: %w", domain.ErrMalformedRecord, c.Title, err)
	}

	return start, nil
}
