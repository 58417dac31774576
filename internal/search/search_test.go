package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"insightpipeline/internal/provider"
	"insightpipeline/internal/query"
)

type fakeAdapter struct {
	id       string
	category provider.Category
	results  []provider.Result
	err      error
	delay    time.Duration
}

func (f *fakeAdapter) ID() string                 { return f.id }
func (f *fakeAdapter) Category() provider.Category { return f.category }
func (f *fakeAdapter) Search(ctx context.Context, query string, opts provider.Options) ([]provider.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestParallelSearchDeduplicatesByURL(t *testing.T) {
	a := &fakeAdapter{id: "a", category: provider.CategoryWeb, results: []provider.Result{
		{"url": "https://example.com/1", "title": "first"},
	}}
	// b answers later, so a is the first-returning adapter for the shared URL.
	b := &fakeAdapter{id: "b", category: provider.CategoryWeb, delay: 50 * time.Millisecond, results: []provider.Result{
		{"url": "https://example.com/1", "title": "duplicate"},
		{"url": "https://example.com/2", "title": "second"},
	}}

	o := New(nil, nil)
	docs := o.ParallelSearch(context.Background(), []query.Query{{Text: "q1"}}, []provider.Adapter{a, b}, Options{})

	if len(docs) != 2 {
		t.Fatalf("expected 2 deduplicated documents, got %d", len(docs))
	}
	for _, d := range docs {
		if d.URL == "https://example.com/1" && d.Title != "first" {
			t.Errorf("expected first-wins attribution, got title %q", d.Title)
		}
	}
}

func TestParallelSearchSurvivesPartialFailure(t *testing.T) {
	ok := &fakeAdapter{id: "ok", category: provider.CategoryWeb, results: []provider.Result{
		{"url": "https://example.com/1"},
	}}
	broken := &fakeAdapter{id: "broken", category: provider.CategoryWeb, err: errors.New("boom")}

	o := New(nil, nil)
	docs := o.ParallelSearch(context.Background(), []query.Query{{Text: "q1"}}, []provider.Adapter{ok, broken}, Options{})
	if len(docs) != 1 {
		t.Fatalf("expected the surviving adapter's result, got %d docs", len(docs))
	}
}

func TestParallelSearchEmptyInputsYieldEmptyNoError(t *testing.T) {
	o := New(nil, nil)
	if docs := o.ParallelSearch(context.Background(), nil, []provider.Adapter{}, Options{}); docs != nil {
		t.Errorf("expected nil/empty result for empty queries, got %v", docs)
	}
}

func TestParallelSearchOrdersByScoreThenRecency(t *testing.T) {
	a := &fakeAdapter{id: "a", category: provider.CategoryWeb, results: []provider.Result{
		{"url": "https://example.com/low", "score": 0.2},
		{"url": "https://example.com/high", "score": 0.9},
		{"url": "https://example.com/undated", "score": 0.9},
		{"url": "https://example.com/dated", "score": 0.9, "publish_date": "2024-01-01"},
	}}
	o := New(nil, nil)
	docs := o.ParallelSearch(context.Background(), []query.Query{{Text: "q"}}, []provider.Adapter{a}, Options{})

	if len(docs) != 4 {
		t.Fatalf("expected 4 docs, got %d", len(docs))
	}
	if docs[0].Score < docs[len(docs)-1].Score {
		t.Errorf("expected descending score order, got %+v", docs)
	}
	// Among equal top scores, dated sorts before undated.
	var datedIdx, undatedIdx int
	for i, d := range docs {
		if d.URL == "https://example.com/dated" {
			datedIdx = i
		}
		if d.URL == "https://example.com/undated" {
			undatedIdx = i
		}
	}
	if datedIdx > undatedIdx {
		t.Errorf("expected dated document to sort before undated at equal score")
	}
}

func TestSearchWithFallbackTriggersWhenPreferredIsSparse(t *testing.T) {
	preferred := &fakeAdapter{id: "preferred", category: provider.CategoryWeb, results: []provider.Result{
		{"url": "https://example.com/1"},
	}}
	fallback := &fakeAdapter{id: "fallback", category: provider.CategoryWeb, results: []provider.Result{
		{"url": "https://example.com/2"},
		{"url": "https://example.com/3"},
	}}

	o := New(nil, nil)
	queries := []query.Query{{Text: "q1"}, {Text: "q2"}, {Text: "q3"}}
	docs := o.SearchWithFallback(context.Background(), queries,
		[]provider.Adapter{preferred}, []provider.Adapter{fallback}, Options{MaxResults: 10})

	if len(docs) < 3 {
		t.Errorf("expected fallback to be consulted and merged in, got %d docs", len(docs))
	}
}
