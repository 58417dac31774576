package summary

import (
	"context"
	"strings"
	"testing"
)

func TestWriteSummaryFallbackRespectsWordBound(t *testing.T) {
	w := NewWriter(nil)
	input := strings.Repeat("This sentence discusses renewable energy growth trends in 2024. ", 20)

	out, err := w.WriteSummary(context.Background(), input, Constraints{MaxWords: 15, Format: Paragraph})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(strings.Fields(out)); n > 15 {
		t.Errorf("expected <= 15 words, got %d", n)
	}
}

func TestWriteSummaryBulletFormat(t *testing.T) {
	w := NewWriter(nil)
	input := "First fact about the topic. Second fact with 42 percent growth. Third unrelated note."
	out, err := w.WriteSummary(context.Background(), input, Constraints{Format: BulletPoints, FocusAreas: []string{"growth"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "- ") {
		t.Errorf("expected bullet formatting, got %q", out)
	}
}

func TestWriteSummaryPreservesOriginalOrderAmongSelected(t *testing.T) {
	w := NewWriter(nil)
	input := "Alpha point one. Beta point two with data 99. Gamma point three."
	out, err := w.WriteSummary(context.Background(), input, Constraints{Format: Paragraph})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alphaIdx := strings.Index(out, "Alpha")
	gammaIdx := strings.Index(out, "Gamma")
	if alphaIdx == -1 || gammaIdx == -1 {
		return // both weren't selected under the budget; nothing to check
	}
	if alphaIdx > gammaIdx {
		t.Error("expected selected sentences to retain source order")
	}
}
