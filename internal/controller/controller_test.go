package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"insightpipeline/internal/analysis"
	"insightpipeline/internal/events"
	"insightpipeline/internal/provider"
	"insightpipeline/internal/query"
	"insightpipeline/internal/search"
	"insightpipeline/internal/taxonomy"
)

type stubAdapter struct {
	id      string
	results []provider.Result
}

func (s *stubAdapter) ID() string                  { return s.id }
func (s *stubAdapter) Category() provider.Category { return provider.CategoryWeb }
func (s *stubAdapter) Search(ctx context.Context, q string, opts provider.Options) ([]provider.Result, error) {
	return s.results, nil
}

func newTestController(results []provider.Result, budgets Budgets) *Controller {
	registry := provider.NewRegistryFromAdapters(&stubAdapter{id: "stub", results: results})
	orchestrator := search.New(registry, nil)
	analyzer := analysis.NewAnalyzer(nil, nil)
	generator := query.NewGenerator(nil)
	return New(generator, orchestrator, analyzer, registry, nil, budgets)
}

func manyResults(n int) []provider.Result {
	out := make([]provider.Result, n)
	for i := 0; i < n; i++ {
		out[i] = provider.Result{
			"url":     "https://example.com/" + string(rune('a'+i)),
			"content": "This is a substantive document about policy, market, technology, investment, and risk with plenty of words to pass completeness thresholds repeated many times over to reach two thousand characters of substantive analysis discussing trends, growth, data points, forecasts, and findings across multiple paragraphs of content that thoroughly covers the topic under study in sufficient depth to score well on completeness and relevance heuristics used by the deterministic fallback scorer.",
		}
	}
	return out
}

func TestControllerTerminatesWithinIterationBound(t *testing.T) {
	c := newTestController(manyResults(5), Budgets{
		MaxIterations:      2,
		QualityThreshold:   0.99, // unreachable, forces the loop to exhaust iterations
		WallTimeBudget:     2 * time.Second,
		PerIterationBudget: 500 * time.Millisecond,
	})
	result, err := c.Run(context.Background(), "test topic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Iterations > 2 {
		t.Errorf("expected iterations <= MaxIterations(2), got %d", result.Iterations)
	}
}

func TestControllerTerminatesWithErrorWhenNoDocumentsEverGathered(t *testing.T) {
	c := newTestController(nil, Budgets{
		MaxIterations:      2,
		QualityThreshold:   0.99,
		WallTimeBudget:     2 * time.Second,
		PerIterationBudget: 500 * time.Millisecond,
	})
	_, err := c.Run(context.Background(), "test topic")
	if err == nil {
		t.Fatal("expected an error when no documents are ever gathered")
	}
	var valErr *taxonomy.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *taxonomy.ValidationError, got %T: %v", err, err)
	}
}

func TestControllerAcceptsOnFirstPassWhenQualityMet(t *testing.T) {
	c := newTestController(manyResults(5), Budgets{
		MaxIterations:      3,
		QualityThreshold:   0.01, // trivially satisfied
		WallTimeBudget:     2 * time.Second,
		PerIterationBudget: 500 * time.Millisecond,
	})
	result, err := c.Run(context.Background(), "policy market technology investment risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Iterations != 0 {
		t.Errorf("expected acceptance on iteration 0, got %d", result.Iterations)
	}
	if len(result.Documents) == 0 {
		t.Error("expected accumulated documents in the result")
	}
}

func TestControllerRespectsCancellation(t *testing.T) {
	c := newTestController(nil, Budgets{
		MaxIterations:      3,
		QualityThreshold:   0.99,
		WallTimeBudget:     2 * time.Second,
		PerIterationBudget: 500 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Run(ctx, "topic"); err == nil {
		t.Error("expected a cancellation error when context is already done")
	}
}

func TestControllerEmitsAnalysisEventsPerDocument(t *testing.T) {
	bus := events.NewBus("sess", 64)
	registry := provider.NewRegistryFromAdapters(&stubAdapter{id: "stub", results: manyResults(3)})
	orchestrator := search.New(registry, bus)
	analyzer := analysis.NewAnalyzer(nil, bus)
	generator := query.NewGenerator(nil)
	c := New(generator, orchestrator, analyzer, registry, bus, Budgets{
		MaxIterations: 1, QualityThreshold: 0.01, WallTimeBudget: time.Second, PerIterationBudget: 500 * time.Millisecond,
	})

	if _, err := c.Run(context.Background(), "market policy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sub := bus.Subscribe(ctx)
	var sawAnalysis bool
	for ev := range sub {
		if ev.Kind == events.AnalysisResult {
			sawAnalysis = true
		}
	}
	if !sawAnalysis {
		t.Error("expected at least one AnalysisResult event")
	}
}
