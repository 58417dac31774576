// Package search implements the Search Orchestrator (spec.md §4.3): it fans
// a set of queries across a set of adapters with bounded concurrency,
// normalizes and deduplicates the results, and orders them for downstream
// consumption.
package search

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"insightpipeline/internal/document"
	"insightpipeline/internal/events"
	"insightpipeline/internal/provider"
	"insightpipeline/internal/query"
)

// Options bounds a ParallelSearch call.
type Options struct {
	MaxResults int // per (query, source) pair
	DaysBack   int
	Freshness  string
	Language   string
	WorkerCap  int // overall cap on in-flight (query, source) tasks
}

// Orchestrator runs searches across a registry of providers.
type Orchestrator struct {
	registry *provider.Registry
	bus      *events.Bus
}

// New constructs an Orchestrator. bus may be nil in tests that don't care
// about progress telemetry.
func New(registry *provider.Registry, bus *events.Bus) *Orchestrator {
	return &Orchestrator{registry: registry, bus: bus}
}

// ParallelSearch is the Cartesian product queries×sources, admitted through
// a bounded worker pool, normalized, deduplicated by URL (first-wins), and
// ordered by (score desc, publish_date desc, undated-last).
func (o *Orchestrator) ParallelSearch(ctx context.Context, queries []query.Query, sources []provider.Adapter, opts Options) []document.Document {
	if len(queries) == 0 || len(sources) == 0 {
		return nil
	}

	workerCap := opts.WorkerCap
	if workerCap <= 0 {
		workerCap = 6
	}

	type task struct {
		q query.Query
		s provider.Adapter
	}
	var tasks []task
	for _, q := range queries {
		for _, s := range sources {
			tasks = append(tasks, task{q, s})
		}
	}

	var mu sync.Mutex
	seen := make(map[string]document.Document)
	var order []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCap)

	for _, tk := range tasks {
		tk := tk
		g.Go(func() error {
			providerOpts := provider.Options{
				MaxResults: opts.MaxResults,
				DaysBack:   opts.DaysBack,
				Freshness:  opts.Freshness,
				Language:   opts.Language,
			}
			raw, err := tk.s.Search(gctx, tk.q.Text, providerOpts)
			if err != nil {
				o.reportFailure(tk.s.ID(), err)
				return nil // sibling failures never abort the call
			}

			for _, r := range raw {
				doc, ok := document.Normalize(tk.s.ID(), toSourceType(tk.s.Category()), document.Raw(r))
				if !ok {
					continue
				}
				mu.Lock()
				if _, exists := seen[doc.Key()]; !exists {
					seen[doc.Key()] = doc
					order = append(order, doc.Key())
				}
				mu.Unlock()
			}
			return nil
		})
	}
	// ParallelSearch never fails the overall call on task errors; Wait only
	// propagates if a task returned a non-nil error, which none do here.
	_ = g.Wait()

	docs := make([]document.Document, 0, len(order))
	for _, key := range order {
		docs = append(docs, seen[key])
	}
	sortDocuments(docs)
	return docs
}

// SearchByCategory restricts sources to the adapters registered under cat.
func (o *Orchestrator) SearchByCategory(ctx context.Context, queries []query.Query, cat provider.Category, opts Options) []document.Document {
	return o.ParallelSearch(ctx, queries, o.registry.ByCategory(cat), opts)
}

// SearchWithFallback runs preferred first; if the result count is below
// half of the theoretical max (len(queries) * max_results_per_query), it
// also runs fallback and merges, dedup preserved (spec.md §4.3).
func (o *Orchestrator) SearchWithFallback(ctx context.Context, queries []query.Query, preferred, fallback []provider.Adapter, opts Options) []document.Document {
	primary := o.ParallelSearch(ctx, queries, preferred, opts)

	threshold := (len(queries) * maxResultsOrDefault(opts) + 1) / 2
	if len(primary) >= threshold || len(fallback) == 0 {
		return primary
	}

	secondary := o.ParallelSearch(ctx, queries, fallback, opts)
	return mergeDedup(primary, secondary)
}

func maxResultsOrDefault(opts Options) int {
	if opts.MaxResults > 0 {
		return opts.MaxResults
	}
	return 10
}

func mergeDedup(primary, secondary []document.Document) []document.Document {
	seen := make(map[string]struct{}, len(primary))
	merged := make([]document.Document, 0, len(primary)+len(secondary))
	for _, d := range primary {
		seen[d.Key()] = struct{}{}
		merged = append(merged, d)
	}
	for _, d := range secondary {
		if _, ok := seen[d.Key()]; ok {
			continue
		}
		seen[d.Key()] = struct{}{}
		merged = append(merged, d)
	}
	sortDocuments(merged)
	return merged
}

func sortDocuments(docs []document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ad, bd := a.PublishDate, b.PublishDate
		if ad == nil && bd == nil {
			return false
		}
		if ad == nil {
			return false // undated sorts after dated at equal score
		}
		if bd == nil {
			return true
		}
		return ad.After(*bd)
	})
}

func toSourceType(cat provider.Category) document.SourceType {
	switch cat {
	case provider.CategoryAcademic:
		return document.Academic
	case provider.CategoryNews:
		return document.News
	default:
		return document.Web
	}
}

func (o *Orchestrator) reportFailure(providerID string, err error) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.StepProgress, "search", 0, events.StepProgressData{
		Message:   "provider search failed",
		ErrorKind: "ProviderError",
		Details:   map[string]interface{}{"provider": providerID, "error": err.Error()},
	})
}
