// Package summary implements the Summary Writer (spec.md §4.8): condenses
// documents or section drafts into executive/structured/bulleted forms
// under length and content constraints.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"insightpipeline/internal/llm"
)

// Format enumerates the rendering shapes WriteSummary supports.
type Format string

const (
	Paragraph    Format = "paragraph"
	BulletPoints Format = "bullet_points"
	Structured   Format = "structured"
	Executive    Format = "executive"
	AcademicForm Format = "academic"
)

// Constraints bounds a single WriteSummary call.
type Constraints struct {
	MinWords   int
	MaxWords   int
	Format     Format
	FocusAreas []string
	Tone       string
	Audience   string
}

// Writer produces summaries, LLM-backed with a deterministic extractive
// fallback (spec.md §9).
type Writer struct {
	client llm.ChatClient
}

func NewWriter(client llm.ChatClient) *Writer {
	return &Writer{client: client}
}

// WriteSummary condenses input (raw document/section text) under
// constraints. The same input may be rendered into several formats via
// independent calls; each call's output independently satisfies its own
// constraints.
func (w *Writer) WriteSummary(ctx context.Context, input string, constraints Constraints) (string, error) {
	if w.client != nil {
		if text, err := w.viaLLM(ctx, input, constraints); err == nil {
			return enforceWordBound(text, constraints), nil
		}
	}
	return enforceWordBound(w.extractiveFallback(input, constraints), constraints), nil
}

func (w *Writer) viaLLM(ctx context.Context, input string, c Constraints) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Format: %s\nTone: %s\nAudience: %s\n", c.Format, c.Tone, c.Audience)
	if len(c.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus on: %s\n", strings.Join(c.FocusAreas, ", "))
	}
	if c.MaxWords > 0 {
		fmt.Fprintf(&b, "Limit to approximately %d words.\n", c.MaxWords)
	}
	b.WriteString("Do not introduce any fact absent from the input.\n\nInput:\n" + input)

	resp, err := w.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You summarize text faithfully without adding new claims."},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// extractiveFallback scores sentences by keyword overlap with FocusAreas
// and numeric-token presence, then selects the top-scoring sentences
// formatted per constraints.Format (spec.md §4.8).
func (w *Writer) extractiveFallback(input string, c Constraints) string {
	sentences := splitSentences(input)
	ranked := rankSentences(sentences, c.FocusAreas)

	limit := len(ranked)
	if c.MaxWords > 0 {
		limit = sentencesFittingWordBudget(ranked, c.MaxWords)
	}
	if limit == 0 && len(ranked) > 0 {
		limit = 1
	}
	selected := ranked[:limit]
	// restore original order among selected sentences for readability
	sort.Slice(selected, func(i, j int) bool { return selected[i].index < selected[j].index })

	texts := make([]string, len(selected))
	for i, s := range selected {
		texts[i] = s.text
	}

	switch c.Format {
	case BulletPoints, Structured:
		var b strings.Builder
		for _, t := range texts {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		return strings.TrimSpace(b.String())
	default: // Paragraph, Executive, AcademicForm
		return strings.Join(texts, " ")
	}
}

type scoredSentence struct {
	text  string
	index int
	score int
}

func rankSentences(sentences []string, focusAreas []string) []scoredSentence {
	focus := make([]string, len(focusAreas))
	for i, f := range focusAreas {
		focus[i] = strings.ToLower(f)
	}

	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		lower := strings.ToLower(s)
		score := 0
		for _, f := range focus {
			if strings.Contains(lower, f) {
				score += 2
			}
		}
		for _, tok := range strings.Fields(lower) {
			if strings.ContainsAny(tok, "0123456789") {
				score++
			}
		}
		scored[i] = scoredSentence{text: s, index: i, score: score}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

func sentencesFittingWordBudget(ranked []scoredSentence, maxWords int) int {
	words := 0
	for i, s := range ranked {
		words += len(strings.Fields(s.text))
		if words > maxWords {
			return i
		}
	}
	return len(ranked)
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' })
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func enforceWordBound(text string, c Constraints) string {
	if c.MaxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= c.MaxWords {
		return text
	}
	return strings.Join(words[:c.MaxWords], " ")
}
