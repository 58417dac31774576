package analysis

import (
	"testing"

	"insightpipeline/internal/document"
)

func docWithSource(source string) document.Document { return document.Document{Source: source} }

func TestDeterministicFallbackWeakSourcesRequiresThreeSources(t *testing.T) {
	g := NewGapDetector(nil)

	// Only two sources present: the ≥3-source guard must suppress weak_sources
	// entirely, even though both contribute exactly one document.
	twoSourceDocs := []document.Document{docWithSource("a"), docWithSource("b")}
	if got := g.deterministicFallback(twoSourceDocs); len(got.WeakSources) != 0 {
		t.Errorf("expected no weak sources with only 2 sources present, got %v", got.WeakSources)
	}

	// Three sources, two contributing a single document each: those two
	// should be flagged.
	threeSourceDocs := []document.Document{
		docWithSource("a"),
		docWithSource("b"),
		docWithSource("c"), docWithSource("c"),
	}
	got := g.deterministicFallback(threeSourceDocs)
	if len(got.WeakSources) != 2 {
		t.Errorf("expected 2 weak sources, got %v", got.WeakSources)
	}
}
