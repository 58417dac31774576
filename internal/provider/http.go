package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"insightpipeline/internal/taxonomy"
)

// maxRateLimitRetries bounds the 429 retry loop (spec.md §7: "the adapter
// waits on its token bucket and retries up to 2 times with exponential
// backoff" before surfacing RateLimited).
const maxRateLimitRetries = 2

// doWithRetry issues a request built fresh by buildReq on every attempt
// (a request's body cannot be replayed once sent) and retries with
// exponential backoff while the provider responds 429, giving up after
// maxRateLimitRetries.
func doWithRetry(ctx context.Context, client *http.Client, providerID string, buildReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: request failed: %w", providerID, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()
		if attempt >= maxRateLimitRetries {
			return nil, &taxonomy.RateLimited{Provider: providerID, Attempt: attempt + 1}
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// httpAdapter is the shared shape of every concrete web/news adapter: build
// a GET request, decode a provider-specific JSON envelope, shape it into
// []Result. Grounded on the teacher's SearchTool HTTP pattern.
type httpAdapter struct {
	id         string
	category   Category
	apiKey     string
	httpClient *http.Client
	limiter    *concurrencySemaphore
	bucket     *tokenBucket
	buildReq   func(ctx context.Context, apiKey, query string, opts Options) (*http.Request, error)
	decode     func(body io.Reader) ([]Result, error)
}

func (a *httpAdapter) ID() string         { return a.id }
func (a *httpAdapter) Category() Category { return a.category }

func (a *httpAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if err := a.limiter.acquire(ctx); err != nil {
		return nil, err
	}
	defer a.limiter.release()

	if err := a.bucket.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := doWithRetry(ctx, a.httpClient, a.id, func() (*http.Request, error) {
		return a.buildReq(ctx, a.apiKey, query, opts)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: API error %d: %s", a.id, resp.StatusCode, string(raw))
	}

	return a.decode(resp.Body)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewBrave builds the brave.com web search adapter.
func NewBrave(apiKey string, timeout time.Duration, concurrency int) Adapter {
	return &httpAdapter{
		id: "brave", category: CategoryWeb, apiKey: apiKey,
		httpClient: newHTTPClient(timeout),
		limiter:    newConcurrencySemaphore(concurrency),
		bucket:     newTokenBucket(1),
		buildReq: func(ctx context.Context, apiKey, query string, opts Options) (*http.Request, error) {
			params := url.Values{}
			params.Set("q", query)
			params.Set("count", strconv.Itoa(resultCount(opts)))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				"https://api.search.brave.com/res/v1/web/search?"+params.Encode(), nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("X-Subscription-Token", apiKey)
			return req, nil
		},
		decode: func(body io.Reader) ([]Result, error) {
			var payload struct {
				Web struct {
					Results []struct {
						Title       string `json:"title"`
						URL         string `json:"url"`
						Description string `json:"description"`
						Age         string `json:"age"`
					} `json:"results"`
				} `json:"web"`
			}
			if err := json.NewDecoder(body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("decode brave response: %w", err)
			}
			out := make([]Result, 0, len(payload.Web.Results))
			for _, r := range payload.Web.Results {
				out = append(out, Result{"title": r.Title, "url": r.URL, "description": r.Description, "date": r.Age})
			}
			return out, nil
		},
	}
}

// NewGoogle builds the Google Programmable Search adapter.
func NewGoogle(apiKey, cx string, timeout time.Duration, concurrency int) Adapter {
	return &httpAdapter{
		id: "google", category: CategoryWeb, apiKey: apiKey,
		httpClient: newHTTPClient(timeout),
		limiter:    newConcurrencySemaphore(concurrency),
		bucket:     newTokenBucket(5),
		buildReq: func(ctx context.Context, apiKey, query string, opts Options) (*http.Request, error) {
			params := url.Values{}
			params.Set("q", query)
			params.Set("key", apiKey)
			params.Set("cx", cx)
			params.Set("num", strconv.Itoa(resultCount(opts)))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				"https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil)
			if err != nil {
				return nil, err
			}
			return req, nil
		},
		decode: func(body io.Reader) ([]Result, error) {
			var payload struct {
				Items []struct {
					Title   string `json:"title"`
					Link    string `json:"link"`
					Snippet string `json:"snippet"`
				} `json:"items"`
			}
			if err := json.NewDecoder(body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("decode google response: %w", err)
			}
			out := make([]Result, 0, len(payload.Items))
			for _, r := range payload.Items {
				out = append(out, Result{"title": r.Title, "url": r.Link, "snippet": r.Snippet})
			}
			return out, nil
		},
	}
}

// NewTavily builds the Tavily search adapter.
func NewTavily(apiKey string, timeout time.Duration, concurrency int) Adapter {
	return &httpAdapter{
		id: "tavily", category: CategoryWeb, apiKey: apiKey,
		httpClient: newHTTPClient(timeout),
		limiter:    newConcurrencySemaphore(concurrency),
		bucket:     newTokenBucket(5),
		buildReq: func(ctx context.Context, apiKey, query string, opts Options) (*http.Request, error) {
			body, _ := json.Marshal(map[string]interface{}{
				"api_key":     apiKey,
				"query":       query,
				"max_results": resultCount(opts),
			})
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		},
		decode: func(body io.Reader) ([]Result, error) {
			var payload struct {
				Results []struct {
					Title       string `json:"title"`
					URL         string `json:"url"`
					Content     string `json:"content"`
					PublishedAt string `json:"published_date"`
					Score       float64 `json:"score"`
				} `json:"results"`
			}
			if err := json.NewDecoder(body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("decode tavily response: %w", err)
			}
			out := make([]Result, 0, len(payload.Results))
			for _, r := range payload.Results {
				out = append(out, Result{
					"title": r.Title, "url": r.URL, "content": r.Content,
					"publish_date": r.PublishedAt, "score": r.Score,
				})
			}
			return out, nil
		},
	}
}

// NewNews builds the newsapi.org adapter. It emulates freshness filtering
// client-side (spec.md §4.1) since the upstream API only accepts absolute
// date ranges, not relative freshness windows.
func NewNews(apiKey string, timeout time.Duration, concurrency int) Adapter {
	return &httpAdapter{
		id: "news", category: CategoryNews, apiKey: apiKey,
		httpClient: newHTTPClient(timeout),
		limiter:    newConcurrencySemaphore(concurrency),
		bucket:     newTokenBucket(2),
		buildReq: func(ctx context.Context, apiKey, query string, opts Options) (*http.Request, error) {
			params := url.Values{}
			params.Set("q", query)
			params.Set("pageSize", strconv.Itoa(resultCount(opts)))
			if from := freshnessFloor(opts); !from.IsZero() {
				params.Set("from", from.Format("2006-01-02"))
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				"https://newsapi.org/v2/everything?"+params.Encode(), nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("X-Api-Key", apiKey)
			return req, nil
		},
		decode: func(body io.Reader) ([]Result, error) {
			var payload struct {
				Articles []struct {
					Title       string `json:"title"`
					URL         string `json:"url"`
					Description string `json:"description"`
					PublishedAt string `json:"publishedAt"`
					Source      struct {
						Name string `json:"name"`
					} `json:"source"`
				} `json:"articles"`
			}
			if err := json.NewDecoder(body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("decode news response: %w", err)
			}
			out := make([]Result, 0, len(payload.Articles))
			for _, a := range payload.Articles {
				out = append(out, Result{
					"title": a.Title, "url": a.URL, "description": a.Description,
					"published": a.PublishedAt, "venue": a.Source.Name,
				})
			}
			return out, nil
		},
	}
}

func resultCount(opts Options) int {
	if opts.MaxResults > 0 {
		return opts.MaxResults
	}
	return 10
}

// freshnessFloor converts the freshness/days_back window into an absolute
// lower bound, applying the news-specific freshness vocabulary.
func freshnessFloor(opts Options) time.Time {
	now := time.Now().UTC()
	switch opts.Freshness {
	case "past day":
		return now.AddDate(0, 0, -1)
	case "past week":
		return now.AddDate(0, 0, -7)
	case "past month":
		return now.AddDate(0, -1, 0)
	}
	if opts.DaysBack > 0 {
		return now.AddDate(0, 0, -opts.DaysBack)
	}
	return time.Time{}
}
