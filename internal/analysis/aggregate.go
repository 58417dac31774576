package analysis

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"insightpipeline/internal/document"
)

// AggregateScore is the set-level QualityScore: the average of per-document
// totals, penalized when source diversity is low (spec.md §4.5, §9).
type AggregateScore struct {
	MeanTotal        float64
	DiversityEntropy float64 // Shannon entropy of the source distribution, in bits
	Penalty          float64
	Total            float64
	PerDocument       []DocumentScore
}

// DiversityPenaltyWeight is the tunable coefficient resolving spec.md §9's
// open question on the diversity penalty coefficient; 0.15 is a
// conservative default (see SPEC_FULL.md).
const DiversityPenaltyWeight = 0.15

// lowDiversityEntropyThreshold is the entropy (in bits) below which the
// source distribution is considered too concentrated and the penalty
// applies. log2(3) ≈ 1.585 — roughly "fewer than 3 sources contributing
// evenly".
const lowDiversityEntropyThreshold = 1.585

// QualityScore computes the aggregate over docs, each scored via scorer.
func QualityScore(ctx context.Context, scorer *Scorer, topic string, docs []document.Document) AggregateScore {
	perDoc := make([]DocumentScore, len(docs))
	totals := make([]float64, len(docs))
	for i, d := range docs {
		score := scorer.Score(ctx, topic, d)
		perDoc[i] = DocumentScore{Document: d, Score: score}
		totals[i] = score.Total
	}

	mean := 0.0
	if len(totals) > 0 {
		m, _ := stats.Mean(totals)
		mean = m
	}

	entropy := sourceEntropy(docs)
	penalty := 0.0
	if entropy < lowDiversityEntropyThreshold {
		deficit := (lowDiversityEntropyThreshold - entropy) / lowDiversityEntropyThreshold
		penalty = deficit * DiversityPenaltyWeight
	}

	total := clamp01(mean - penalty)
	return AggregateScore{
		MeanTotal:        mean,
		DiversityEntropy: entropy,
		Penalty:          penalty,
		Total:            total,
		PerDocument:      perDoc,
	}
}

// sourceEntropy computes the Shannon entropy (base 2) of the distribution
// of documents over their Source adapter ids.
func sourceEntropy(docs []document.Document) float64 {
	if len(docs) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, d := range docs {
		counts[d.Source]++
	}
	n := float64(len(docs))
	var entropy float64
	for _, c := range counts {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
