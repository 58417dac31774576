package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"insightpipeline/internal/document"
	"insightpipeline/internal/llm"
)

// GapReport is the aggregate coverage assessment over a document set
// (spec.md §3).
type GapReport struct {
	Score          float64
	MissingAspects []string
	WeakSources    []string
	Staleness      float64
}

// canonicalAspects is the fixed list consulted by the deterministic gap
// fallback when the LLM is unavailable (spec.md §9's resolved open
// question: "presence/absence per canonical aspect list").
var canonicalAspects = []string{"market", "policy", "technology", "investment", "risk"}

// stalenessHorizonDays is the age beyond which a document counts toward
// GapReport.Staleness.
const stalenessHorizonDays = 365

// GapDetector produces GapReports, LLM-assisted with a deterministic
// fallback.
type GapDetector struct {
	client llm.ChatClient
}

func NewGapDetector(client llm.ChatClient) *GapDetector {
	return &GapDetector{client: client}
}

func (g *GapDetector) Detect(ctx context.Context, topic string, docs []document.Document) GapReport {
	if g.client != nil {
		if report, err := g.viaLLM(ctx, topic, docs); err == nil {
			return report
		}
	}
	return g.deterministicFallback(docs)
}

func (g *GapDetector) viaLLM(ctx context.Context, topic string, docs []document.Document) (GapReport, error) {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString("- " + d.Title + " (" + d.Source + ")\n")
	}
	resp, err := g.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: `Given a topic and a list of retrieved document titles/sources, identify coverage gaps. Respond as JSON: {"missing_aspects": [...], "weak_sources": [...]}`},
		{Role: "user", Content: "Topic: " + topic + "\nDocuments:\n" + b.String()},
	})
	if err != nil {
		return GapReport{}, err
	}
	var parsed struct {
		MissingAspects []string `json:"missing_aspects"`
		WeakSources    []string `json:"weak_sources"`
	}
	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return GapReport{}, err
	}
	report := GapReport{
		MissingAspects: parsed.MissingAspects,
		WeakSources:    parsed.WeakSources,
		Staleness:      staleness(docs),
	}
	report.Score = coverageScore(report, len(docs))
	return report, nil
}

// deterministicFallback flags canonical aspects mentioned in the
// title/content of at most one document, and, when at least three sources
// are present, sources contributing a single document (spec.md §4.5, §9).
func (g *GapDetector) deterministicFallback(docs []document.Document) GapReport {
	var missing []string
	for _, aspect := range canonicalAspects {
		if mentionCount(docs, aspect) <= 1 {
			missing = append(missing, aspect)
		}
	}

	counts := make(map[string]int)
	for _, d := range docs {
		counts[d.Source]++
	}
	var weak []string
	if len(counts) >= 3 {
		for source, n := range counts {
			if n <= 1 {
				weak = append(weak, source)
			}
		}
	}

	report := GapReport{
		MissingAspects: missing,
		WeakSources:    weak,
		Staleness:      staleness(docs),
	}
	report.Score = coverageScore(report, len(docs))
	return report
}

func mentionCount(docs []document.Document, aspect string) int {
	var n int
	for _, d := range docs {
		text := strings.ToLower(d.Title + " " + d.Content)
		if strings.Contains(text, aspect) {
			n++
		}
	}
	return n
}

func staleness(docs []document.Document) float64 {
	if len(docs) == 0 {
		return 0
	}
	var stale int
	for _, d := range docs {
		if d.PublishDate == nil {
			continue
		}
		if daysSince(*d.PublishDate) > stalenessHorizonDays {
			stale++
		}
	}
	return float64(stale) / float64(len(docs))
}

func coverageScore(report GapReport, docCount int) float64 {
	if docCount == 0 {
		return 0
	}
	aspectCoverage := 1 - float64(len(report.MissingAspects))/float64(len(canonicalAspects))
	return clamp01(aspectCoverage - report.Staleness*0.2)
}
