// Package query generates search queries from a topic and strategy tag
// (spec.md §4.4), with a deterministic fallback so the pipeline is never
// blocked on LLM availability.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"insightpipeline/internal/llm"
)

// Strategy is the tag influencing how queries are generated. It never
// changes downstream retrieval semantics (spec.md §3).
type Strategy string

const (
	Initial  Strategy = "initial"
	Iterative Strategy = "iterative"
	Targeted Strategy = "targeted"
	Academic Strategy = "academic"
	News     Strategy = "news"
)

// Query is a generated search string tagged with the strategy that produced it.
type Query struct {
	Text     string
	Strategy Strategy
}

// Context supplies strategy-specific generation inputs.
type Context struct {
	// Iterative
	MissingAspects []string
	WeakSources    []string

	// Targeted
	SectionTitle       string
	SectionDescription string

	// Companies bias wording toward named entities (kwargs.companies, spec §6).
	Companies []string
}

// Generator produces Queries via an LLM-backed primary path with a
// deterministic template fallback.
type Generator struct {
	client llm.ChatClient
}

// NewGenerator constructs a Generator. client may be nil, in which case
// Generate always uses the deterministic fallback.
func NewGenerator(client llm.ChatClient) *Generator {
	return &Generator{client: client}
}

// Generate derives deduplicated queries for topic under strategy. The LLM
// path is prompted for 2-6 queries depending on strategy; the template
// fallback's count follows its inputs (one query per missing aspect or
// company, none for a targeted call without a section title), so it is
// not bounded to that range.
func (g *Generator) Generate(ctx context.Context, topic string, strategy Strategy, qctx Context) []Query {
	var queries []Query
	if g.client != nil {
		if llmQueries, err := g.generateViaLLM(ctx, topic, strategy, qctx); err == nil && len(llmQueries) > 0 {
			queries = llmQueries
		}
	}
	if len(queries) == 0 {
		queries = fallback(topic, strategy, qctx)
	}
	return dedupCaseInsensitive(queries)
}

func (g *Generator) generateViaLLM(ctx context.Context, topic string, strategy Strategy, qctx Context) ([]Query, error) {
	prompt := buildPrompt(topic, strategy, qctx)
	resp, err := g.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You generate concise web search queries. Respond with a JSON array of strings only."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse query list: %w", err)
	}
	return lo.FilterMap(raw, func(s string, _ int) (Query, bool) {
		s = strings.TrimSpace(s)
		return Query{Text: s, Strategy: strategy}, s != ""
	}), nil
}

func buildPrompt(topic string, strategy Strategy, qctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nStrategy: %s\n", topic, strategy)
	if len(qctx.Companies) > 0 {
		fmt.Fprintf(&b, "Bias toward these entities: %s\n", strings.Join(qctx.Companies, ", "))
	}
	switch strategy {
	case Initial:
		b.WriteString("Produce 3-6 broad queries covering overview, key subtopics, and recent developments.\n")
	case Iterative:
		fmt.Fprintf(&b, "Produce 2-4 queries that target these coverage gaps explicitly: %s. Weak sources so far: %s.\n",
			strings.Join(qctx.MissingAspects, ", "), strings.Join(qctx.WeakSources, ", "))
	case Targeted:
		fmt.Fprintf(&b, "Produce 2-4 queries narrowly scoped to the section %q (%s).\n", qctx.SectionTitle, qctx.SectionDescription)
	case Academic:
		b.WriteString("Produce 2-4 queries biased toward academic/scholarly sources (e.g. arXiv, peer review).\n")
	case News:
		b.WriteString("Produce 2-4 queries biased toward recent news coverage.\n")
	}
	return b.String()
}

func dedupCaseInsensitive(queries []Query) []Query {
	seen := make(map[string]struct{}, len(queries))
	return lo.Filter(queries, func(q Query, _ int) bool {
		key := strings.ToLower(strings.TrimSpace(q.Text))
		if key == "" {
			return false
		}
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}
