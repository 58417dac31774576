package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// arxivAdapter queries arXiv's public Atom feed. It needs no API key, so
// the pipeline still functions on an academic-only adapter set when no web
// provider keys are configured (spec.md §6).
type arxivAdapter struct {
	httpClient *http.Client
	limiter    *concurrencySemaphore
	bucket     *tokenBucket
}

// NewArxiv builds the arXiv academic adapter.
func NewArxiv(timeout time.Duration, concurrency int) Adapter {
	return &arxivAdapter{
		httpClient: newHTTPClient(timeout),
		limiter:    newConcurrencySemaphore(concurrency),
		bucket:     newTokenBucket(1),
	}
}

func (a *arxivAdapter) ID() string         { return "arxiv" }
func (a *arxivAdapter) Category() Category { return CategoryAcademic }

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func (e atomEntry) url() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" || l.Rel == "" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return ""
}

func (a *arxivAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if err := a.limiter.acquire(ctx); err != nil {
		return nil, err
	}
	defer a.limiter.release()
	if err := a.bucket.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(resultCount(opts)))

	resp, err := doWithRetry(ctx, a.httpClient, "arxiv", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://export.arxiv.org/api/query?"+params.Encode(), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arxiv: API error %d: %s", resp.StatusCode, string(raw))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}

	out := make([]Result, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		authorNames := make([]string, 0, len(e.Authors))
		for _, au := range e.Authors {
			authorNames = append(authorNames, au.Name)
		}
		out = append(out, Result{
			"title":        strings.TrimSpace(e.Title),
			"url":          e.url(),
			"abstract":     strings.TrimSpace(e.Summary),
			"publish_date": e.Published,
			"authors":      authorNames,
		})
	}
	return out, nil
}
