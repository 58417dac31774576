// Package report implements the Report Assembler (spec.md §4.10): pure
// composition of a topic, outline, sections, and summary into a single
// deterministic Markdown artifact.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"insightpipeline/internal/analysis"
	"insightpipeline/internal/outline"
	"insightpipeline/internal/section"
	"insightpipeline/internal/taxonomy"
)

// Reference is one entry in the consolidated bibliography, ordered by
// first appearance across sections (spec.md §4.10, step 5).
type Reference struct {
	URL   string
	Title string
}

// Report is the final artifact (spec.md §3).
type Report struct {
	Topic            string
	GeneratedAt       time.Time
	Outline          *outline.Outline
	Sections         []section.Section
	ExecutiveSummary string
	References       []Reference
	QualityScore     analysis.AggregateScore
	Metadata         map[string]interface{}
}

// Input bundles everything Assemble needs. SessionID, SourcesCount, and
// Iterations feed the metadata block (spec.md §4.10, step 1).
type Input struct {
	Topic            string
	Outline          *outline.Outline
	Sections         []section.Section // must align with outline.Leaves(), same order
	ExecutiveSummary string
	Quality          analysis.AggregateScore
	SessionID        string
	SourcesCount     int
	Iterations       int
	GeneratedAt      time.Time
	ModelUsageTotals map[string]interface{}
}

// Assembler composes a Report from a completed pipeline run.
type Assembler struct{}

func NewAssembler() *Assembler { return &Assembler{} }

// Assemble produces a Report and its rendered Markdown. The layout is
// fixed (spec.md §4.10): title+metadata, executive summary, table of
// contents, sections in outline order, consolidated references.
//
// The citation-closure invariant (spec.md §4.10) is enforced both ways:
// every section citation appears in References, and every Reference is
// cited by at least one section — by construction, since References is
// built solely from the sections' own citation lists.
func (a *Assembler) Assemble(in Input) (Report, string, error) {
	if in.Outline == nil {
		return Report{}, "", &taxonomy.ValidationError{Subject: "report", Reason: "outline is required"}
	}
	leaves := in.Outline.Leaves()
	if len(leaves) != len(in.Sections) {
		return Report{}, "", &taxonomy.ValidationError{
			Subject: "report",
			Reason:  fmt.Sprintf("section count %d does not match outline leaf count %d", len(in.Sections), len(leaves)),
		}
	}

	refs := consolidateReferences(in.Sections)

	metadata := map[string]interface{}{
		"session_id":      in.SessionID,
		"sources_count":   in.SourcesCount,
		"iteration_count": in.Iterations,
		"quality_total":   in.Quality.Total,
	}
	for k, v := range in.ModelUsageTotals {
		metadata[k] = v
	}

	rpt := Report{
		Topic:            in.Topic,
		GeneratedAt:      in.GeneratedAt,
		Outline:          in.Outline,
		Sections:         in.Sections,
		ExecutiveSummary: in.ExecutiveSummary,
		References:       refs,
		QualityScore:     in.Quality,
		Metadata:         metadata,
	}

	md := render(rpt, leaves)
	return rpt, md, nil
}

func consolidateReferences(sections []section.Section) []Reference {
	seen := make(map[string]struct{})
	var refs []Reference
	for _, s := range sections {
		for _, c := range s.Citations {
			if _, ok := seen[c.URL]; ok {
				continue
			}
			seen[c.URL] = struct{}{}
			refs = append(refs, Reference{URL: c.URL, Title: c.Title})
		}
	}
	return refs
}

func render(r Report, leaves []*outline.Node) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Topic)
	fmt.Fprintf(&b, "*Generated: %s | Session: %s | Sources: %v | Iterations: %v | Quality: %.2f*\n\n",
		r.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		r.Metadata["session_id"],
		r.Metadata["sources_count"],
		r.Metadata["iteration_count"],
		r.QualityScore.Total,
	)

	b.WriteString("## Executive Summary\n\n")
	b.WriteString(r.ExecutiveSummary)
	b.WriteString("\n\n")

	b.WriteString("## Table of Contents\n\n")
	for _, n := range leaves {
		fmt.Fprintf(&b, "- [%s](#%s)\n", n.Title, anchor(n.Title))
	}
	b.WriteString("\n")

	for i, n := range leaves {
		fmt.Fprintf(&b, "## %s\n\n", n.Title)
		b.WriteString(r.Sections[i].Content)
		b.WriteString("\n\n")
	}

	b.WriteString("## References\n\n")
	for i, ref := range r.References {
		title := ref.Title
		if title == "" {
			title = ref.URL
		}
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, ref.URL)
	}

	return b.String()
}

var anchorNonWord = regexp.MustCompile(`[^a-z0-9\- ]`)

// anchor lowercases and hyphenates a heading the way GitHub-flavored
// Markdown renderers derive link targets.
func anchor(title string) string {
	lower := strings.ToLower(title)
	lower = anchorNonWord.ReplaceAllString(lower, "")
	return strings.ReplaceAll(strings.TrimSpace(lower), " ", "-")
}

// Preview returns the first n characters of the rendered report, a
// convenience for streaming a quick look before the full artifact is
// written to disk.
func Preview(markdown string, n int) string {
	runes := []rune(markdown)
	if n <= 0 || n >= len(runes) {
		return markdown
	}
	return string(runes[:n]) + "…"
}
