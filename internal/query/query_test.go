package query

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateFallbackInitialBroadQueries(t *testing.T) {
	g := NewGenerator(nil)
	queries := g.Generate(context.Background(), "renewable energy", Initial, Context{})
	if len(queries) < 3 {
		t.Fatalf("expected at least 3 broad queries, got %d", len(queries))
	}
	for _, q := range queries {
		if q.Strategy != Initial {
			t.Errorf("expected all queries tagged Initial, got %v", q.Strategy)
		}
	}
}

func TestGenerateIterativeTargetsMissingAspects(t *testing.T) {
	g := NewGenerator(nil)
	queries := g.Generate(context.Background(), "EV adoption", Iterative, Context{
		MissingAspects: []string{"policy", "investment"},
	})
	var sawPolicy, sawInvestment bool
	for _, q := range queries {
		lower := strings.ToLower(q.Text)
		if strings.Contains(lower, "policy") {
			sawPolicy = true
		}
		if strings.Contains(lower, "investment") {
			sawInvestment = true
		}
	}
	if !sawPolicy || !sawInvestment {
		t.Errorf("expected queries to mention both gap tokens, got %v", queries)
	}
}

func TestGenerateDeduplicatesCaseInsensitively(t *testing.T) {
	g := NewGenerator(nil)
	queries := g.Generate(context.Background(), "Topic", Targeted, Context{
		SectionTitle:       "Topic",
		SectionDescription: "",
	})
	seen := map[string]bool{}
	for _, q := range queries {
		key := strings.ToLower(q.Text)
		if seen[key] {
			t.Errorf("duplicate query after dedup: %q", q.Text)
		}
		seen[key] = true
	}
}
