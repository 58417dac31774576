package analysis

import (
	"context"
	"strings"
	"time"

	"insightpipeline/internal/document"
	"insightpipeline/internal/llm"
)

// authorityTable is a static domain→base-score classification (spec.md
// §4.5). Unknown domains fall back to TLD heuristics.
var authorityTable = map[string]float64{
	"nature.com":        0.95,
	"science.org":       0.95,
	"arxiv.org":         0.85,
	"ieee.org":          0.9,
	"reuters.com":       0.85,
	"bloomberg.com":     0.85,
	"ft.com":            0.85,
	"wsj.com":           0.85,
	"nytimes.com":       0.8,
	"bbc.com":           0.8,
	"techcrunch.com":    0.7,
	"wired.com":         0.7,
	"github.com":        0.6,
	"wikipedia.org":     0.6,
	"medium.com":        0.4,
	"substack.com":      0.35,
}

func authority(domain string) float64 {
	if v, ok := authorityTable[domain]; ok {
		return v
	}
	switch {
	case strings.HasSuffix(domain, ".gov"):
		return 0.95
	case strings.HasSuffix(domain, ".edu"):
		return 0.85
	case strings.HasSuffix(domain, ".org"):
		return 0.6
	default:
		return 0.45
	}
}

// timeliness implements the piecewise days-since-publish function
// (spec.md §4.5). A missing date scores 0.5 (neither stale nor fresh).
func timeliness(publishDate *time.Time, now time.Time) float64 {
	if publishDate == nil {
		return 0.5
	}
	days := now.Sub(*publishDate).Hours() / 24
	switch {
	case days <= 30:
		return 1.0
	case days <= 90:
		return 0.9
	case days <= 180:
		return 0.8
	case days <= 365:
		return 0.6
	case days <= 730:
		return 0.4
	default:
		return 0.2
	}
}

// completeness implements the piecewise content-length function
// (spec.md §4.5).
func completeness(content string) float64 {
	n := len(content)
	switch {
	case n >= 2000:
		return 1.0
	case n >= 1000:
		return 0.8
	case n >= 500:
		return 0.6
	case n >= 200:
		return 0.4
	default:
		return 0.2
	}
}

// indicatorWords bias the deterministic relevance/practicality/accuracy
// fallback toward documents that read as substantive rather than generic
// marketing or listicle content.
var indicatorWords = []string{
	"study", "data", "report", "analysis", "research", "survey",
	"according to", "percent", "%", "growth", "forecast", "findings",
}

// Scorer computes QualityScore per-document.
type Scorer struct {
	client llm.ChatClient
	now    func() time.Time
}

// NewScorer constructs a Scorer. client may be nil to always use the
// deterministic fallback.
func NewScorer(client llm.ChatClient) *Scorer {
	return &Scorer{client: client, now: time.Now}
}

// Score computes the full QualityScore for one document in the context of
// topic (used by the relevance/practicality/accuracy LLM path).
func (s *Scorer) Score(ctx context.Context, topic string, doc document.Document) QualityScore {
	rel, prac, acc := s.relevancePracticalityAccuracy(ctx, topic, doc)
	return newQualityScore(
		rel,
		prac,
		timeliness(doc.PublishDate, s.now()),
		authority(doc.Domain),
		completeness(doc.Content),
		acc,
	)
}

func (s *Scorer) relevancePracticalityAccuracy(ctx context.Context, topic string, doc document.Document) (relevance, practicality, accuracy float64) {
	if s.client != nil {
		if r, p, a, err := s.viaLLM(ctx, topic, doc); err == nil {
			return r, p, a
		}
	}
	return keywordHeuristic(topic, doc)
}

func (s *Scorer) viaLLM(ctx context.Context, topic string, doc document.Document) (relevance, practicality, accuracy float64, err error) {
	resp, err := s.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: "Score relevance, practicality, and accuracy of a document against a topic on a 0-1 scale. Respond with three numbers separated by commas, nothing else."},
		{Role: "user", Content: "Topic: " + topic + "\nTitle: " + doc.Title + "\nContent: " + truncate(doc.Content, 2000)},
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return parseThreeFloats(resp.Text())
}

func keywordHeuristic(topic string, doc document.Document) (relevance, practicality, accuracy float64) {
	text := strings.ToLower(doc.Title + " " + doc.Content)
	topicWords := strings.Fields(strings.ToLower(topic))

	var hits int
	for _, w := range topicWords {
		if w == "" {
			continue
		}
		if strings.Contains(text, w) {
			hits++
		}
	}
	relevance = clamp01(float64(hits) / float64(maxInt(len(topicWords), 1)))

	var indicatorHits int
	for _, w := range indicatorWords {
		if strings.Contains(text, w) {
			indicatorHits++
		}
	}
	practicality = clamp01(float64(indicatorHits) / float64(len(indicatorWords)) * 2)

	// Accuracy heuristic: presence of numeric tokens and attributions reads
	// as more verifiable than purely qualitative prose.
	var numericTokens int
	for _, f := range strings.Fields(text) {
		if strings.ContainsAny(f, "0123456789") {
			numericTokens++
		}
	}
	accuracy = clamp01(0.4 + float64(numericTokens)/40)

	return relevance, practicality, accuracy
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func parseThreeFloats(text string) (a, b, c float64, err error) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	if len(parts) < 3 {
		return 0, 0, 0, errNotThreeFloats
	}
	vals := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, e := parseFloatLenient(parts[i])
		if e != nil {
			return 0, 0, 0, e
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
