package analysis

import (
	"context"

	"insightpipeline/internal/document"
	"insightpipeline/internal/events"
	"insightpipeline/internal/llm"
)

// Analyzer is the only component permitted to emit AnalysisResult events
// (spec.md §4.5); it wraps Scorer and GapDetector with the bus handle.
type Analyzer struct {
	scorer *Scorer
	gaps   *GapDetector
	bus    *events.Bus
}

func NewAnalyzer(client llm.ChatClient, bus *events.Bus) *Analyzer {
	return &Analyzer{
		scorer: NewScorer(client),
		gaps:   NewGapDetector(client),
		bus:    bus,
	}
}

// Analyze scores the document set and produces its coverage gap report,
// publishing one AnalysisResult event per document.
func (a *Analyzer) Analyze(ctx context.Context, topic string, iteration int, docs []document.Document) (AggregateScore, GapReport) {
	aggregate := QualityScore(ctx, a.scorer, topic, docs)
	report := a.gaps.Detect(ctx, topic, docs)

	if a.bus != nil {
		for _, ds := range aggregate.PerDocument {
			a.bus.Publish(events.AnalysisResult, "analysis", iteration, events.AnalysisResultData{
				DocumentURL:  ds.Document.URL,
				Relevance:    ds.Score.Relevance,
				Practicality: ds.Score.Practicality,
				Timeliness:   ds.Score.Timeliness,
				Authority:    ds.Score.Authority,
				Completeness: ds.Score.Completeness,
				Accuracy:     ds.Score.Accuracy,
				Total:        ds.Score.Total,
			})
		}
	}

	return aggregate, report
}
