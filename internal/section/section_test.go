package section

import (
	"context"
	"testing"
	"time"

	"insightpipeline/internal/document"
	"insightpipeline/internal/outline"
)

func doc(url, title, content string) document.Document {
	return document.Document{URL: url, Title: title, Content: content, Domain: "example.com"}
}

func TestWriteSectionFallbackCitesOnlyProvidedDocs(t *testing.T) {
	w := NewWriter(nil)
	node := &outline.Node{ID: 1, Title: "Overview", Description: "desc", KeyPoints: []string{"growth trends"}}
	docs := []document.Document{
		doc("https://example.com/a", "Growth Report", "Growth trends accelerated this year due to demand. Analysts expect continued momentum."),
	}

	sec, err := w.WriteSection(context.Background(), node, docs, Config{IncludeCitations: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range sec.Citations {
		found := false
		for _, d := range docs {
			if d.URL == c.URL {
				found = true
			}
		}
		if !found {
			t.Errorf("citation %q not in section's document set", c.URL)
		}
	}
}

func TestWriteSectionEnforcesSubheadingsForLongComprehensive(t *testing.T) {
	w := NewWriter(nil)
	node := &outline.Node{
		ID: 1, Title: "Deep Dive", Description: "desc",
		KeyPoints: []string{"a", "b", "c", "d", "e", "f"},
	}
	sec, err := w.WriteSection(context.Background(), node, nil, Config{
		Depth: ComprehensiveDepth, MaxLength: 20000, MinLength: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headingCount := countHeadings(sec.Content)
	if headingCount < minSubheadingsForLongSections {
		t.Errorf("expected >= %d sub-headings, got %d", minSubheadingsForLongSections, headingCount)
	}
}

func countHeadings(content string) int {
	count := 0
	for _, line := range splitLines(content) {
		if len(line) > 2 && line[0] == '#' {
			count++
		}
	}
	return count
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func TestVerifyClosureRejectsForeignCitation(t *testing.T) {
	byURL := map[string]document.Document{"https://example.com/a": doc("https://example.com/a", "A", "content")}
	citations := []Citation{{URL: "https://example.com/b", Title: "B"}}
	if err := verifyClosure(citations, byURL); err == nil {
		t.Error("expected closure violation to be rejected")
	}
}

func TestWriteSectionWithinDeadline(t *testing.T) {
	w := NewWriter(nil)
	node := &outline.Node{ID: 1, Title: "T", KeyPoints: []string{"x"}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := w.WriteSection(ctx, node, nil, Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
