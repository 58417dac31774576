// Package controller implements the quality-gated Iterative Controller
// (spec.md §4.9) as an explicit tagged state machine.
package controller

import (
	"context"
	"sync"
	"time"

	"insightpipeline/internal/analysis"
	"insightpipeline/internal/document"
	"insightpipeline/internal/events"
	"insightpipeline/internal/provider"
	"insightpipeline/internal/query"
	"insightpipeline/internal/search"
	"insightpipeline/internal/taxonomy"
)

// state tags the iterative loop's current node (spec.md §4.9).
type state int

const (
	s0Init state = iota
	s1Generate
	s2Search
	s3Analyze
	s4Gate
	s5Regenerate
	s5Escalate
	s6Accept
	sError
)

// Budgets bounds the loop's runtime (spec.md §4.9, §5).
type Budgets struct {
	MaxIterations       int
	QualityThreshold    float64
	WallTimeBudget      time.Duration
	PerIterationBudget  time.Duration
}

// Result is what S6_Accept hands off to the outline/section pipeline.
type Result struct {
	Documents  []document.Document
	Quality    analysis.AggregateScore
	GapReport  analysis.GapReport
	Iterations int
}

// Controller runs the generate→search→analyze→gate loop.
type Controller struct {
	generator    *query.Generator
	orchestrator *search.Orchestrator
	analyzer     *analysis.Analyzer
	registry     *provider.Registry
	bus          *events.Bus
	budgets      Budgets
}

func New(generator *query.Generator, orchestrator *search.Orchestrator, analyzer *analysis.Analyzer, registry *provider.Registry, bus *events.Bus, budgets Budgets) *Controller {
	if budgets.MaxIterations <= 0 {
		budgets.MaxIterations = 3
	}
	if budgets.QualityThreshold <= 0 {
		budgets.QualityThreshold = 0.7
	}
	return &Controller{
		generator:    generator,
		orchestrator: orchestrator,
		analyzer:     analyzer,
		registry:     registry,
		bus:          bus,
		budgets:      budgets,
	}
}

// accumulator holds the document set under writer-append/reader-snapshot
// discipline (spec.md §5): writers only append, readers take a snapshot.
type accumulator struct {
	mu   sync.Mutex
	byURL map[string]document.Document
}

func newAccumulator() *accumulator {
	return &accumulator{byURL: make(map[string]document.Document)}
}

func (a *accumulator) merge(docs []document.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range docs {
		if _, exists := a.byURL[d.Key()]; !exists {
			a.byURL[d.Key()] = d
		}
	}
}

func (a *accumulator) snapshot() []document.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]document.Document, 0, len(a.byURL))
	for _, d := range a.byURL {
		out = append(out, d)
	}
	return out
}

// Run drives the state machine from S0_Init to S6_Accept (or sError),
// always terminating within MaxIterations+1 search rounds
// (testable property 6).
func (c *Controller) Run(ctx context.Context, topic string) (Result, error) {
	deadline := time.Now().Add(c.budgets.WallTimeBudget)
	acc := newAccumulator()

	st := s0Init
	iteration := 0
	var lastQueries []query.Query
	var aggregate analysis.AggregateScore
	var gapReport analysis.GapReport
	var errReason string

	for {
		if ctx.Err() != nil {
			c.emitStep(events.StepProgress, "controller", iteration, "cancelled mid-loop")
			return Result{}, &taxonomy.Cancelled{At: "controller"}
		}
		if time.Now().After(deadline) && st != s6Accept {
			st = s6Accept
		}

		switch st {
		case s0Init:
			st = s1Generate

		case s1Generate:
			c.emitStep(events.StepStarted, "query", iteration, "generating initial queries")
			lastQueries = c.generator.Generate(ctx, topic, query.Initial, query.Context{})
			st = s2Search

		case s2Search:
			iterCtx, cancel := context.WithTimeout(ctx, c.budgets.PerIterationBudget)
			c.emitStep(events.StepStarted, "search", iteration, "searching")
			docs := c.orchestrator.ParallelSearch(iterCtx, lastQueries, c.registry.All(), search.Options{MaxResults: 10})
			cancel()
			acc.merge(docs)

			if len(acc.snapshot()) == 0 {
				if iteration == 0 {
					st = s5Escalate
					continue
				}
				errReason = "no documents retrieved after all search iterations"
				st = sError
				continue
			}
			st = s3Analyze

		case s3Analyze:
			c.emitStep(events.StepStarted, "analysis", iteration, "analyzing")
			snapshot := acc.snapshot()
			aggregate, gapReport = c.analyzer.Analyze(ctx, topic, iteration, snapshot)
			st = s4Gate

		case s4Gate:
			budgetExhausted := time.Now().After(deadline)
			if aggregate.Total >= c.budgets.QualityThreshold || iteration >= c.budgets.MaxIterations || budgetExhausted {
				st = s6Accept
			} else {
				st = s5Regenerate
			}

		case s5Regenerate:
			iteration++
			gapCtx := query.Context{MissingAspects: gapReport.MissingAspects, WeakSources: gapReport.WeakSources}
			lastQueries = c.generator.Generate(ctx, topic, query.Iterative, gapCtx)
			st = s2Search

		case s5Escalate:
			iteration++
			preferred := c.registry.ByCategory(provider.CategoryWeb)
			fallbackSources := c.registry.All()
			iterCtx, cancel := context.WithTimeout(ctx, c.budgets.PerIterationBudget)
			docs := c.orchestrator.SearchWithFallback(iterCtx, lastQueries, preferred, fallbackSources, search.Options{MaxResults: 10})
			cancel()
			acc.merge(docs)
			if len(acc.snapshot()) == 0 {
				errReason = "no documents retrieved after escalation"
				st = sError
				continue
			}
			st = s3Analyze

		case s6Accept:
			c.emitStep(events.StepCompleted, "controller", iteration, "accepted")
			return Result{
				Documents:  acc.snapshot(),
				Quality:    aggregate,
				GapReport:  gapReport,
				Iterations: iteration,
			}, nil

		case sError:
			if errReason == "" {
				errReason = "unrecoverable state"
			}
			c.emitError(iteration, errReason)
			return Result{}, &taxonomy.ValidationError{Subject: "controller", Reason: errReason}
		}
	}
}

func (c *Controller) emitStep(kind events.Kind, step string, iteration int, message string) {
	if c.bus == nil {
		return
	}
	switch kind {
	case events.StepStarted:
		c.bus.Publish(kind, step, iteration, events.StepStartedData{Message: message})
	case events.StepCompleted:
		c.bus.Publish(kind, step, iteration, events.StepCompletedData{Message: message})
	default:
		c.bus.Publish(kind, step, iteration, events.StepProgressData{Message: message})
	}
}

// emitError publishes the session-fatal ErrorEvent for a terminal S_Error
// exit (spec.md §7).
func (c *Controller) emitError(iteration int, reason string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.ErrorEvent, "controller", iteration, events.ErrorData{
		Kind:    "ValidationError",
		Message: reason,
	})
}
