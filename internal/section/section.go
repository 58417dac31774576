// Package section implements the Section Writer (spec.md §4.7): generates
// long-form content for one outline section from section-scoped documents,
// emitting citations.
package section

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"insightpipeline/internal/document"
	"insightpipeline/internal/llm"
	"insightpipeline/internal/outline"
	"insightpipeline/internal/taxonomy"
)

// Style, Tone, and Depth enumerate the writer's configuration axes
// (spec.md §4.7).
type Style string
type Tone string
type Depth string

const (
	Professional Style = "professional"
	Academic     Style = "academic"
	Casual       Style = "casual"
	Technical    Style = "technical"

	Objective  Tone = "objective"
	Persuasive Tone = "persuasive"
	Analytical Tone = "analytical"

	Brief         Depth = "brief"
	Detailed      Depth = "detailed"
	ComprehensiveDepth Depth = "comprehensive"
)

// Config configures a single WriteSection call.
type Config struct {
	Style            Style
	Audience         string
	Tone             Tone
	Depth            Depth
	IncludeExamples  bool
	IncludeCitations bool
	MinLength        int
	MaxLength        int
}

// maxRetries bounds the expand/tighten retry loop (spec.md §4.7).
const maxRetries = 2

// minSubheadingsForLongSections is the hierarchical requirement for
// comprehensive, ≥1500-char sections (spec.md §4.7).
const minSubheadingsForLongSections = 7

// Citation is a single reference rendered as a Markdown link.
type Citation struct {
	URL   string
	Title string
}

// Section is the realized content for one OutlineNode.
type Section struct {
	OutlineID int
	Content   string
	Citations []Citation
	WordCount int
}

// Writer generates Sections, LLM-backed with a deterministic
// extractive-composition fallback.
type Writer struct {
	client llm.ChatClient
}

func NewWriter(client llm.ChatClient) *Writer {
	return &Writer{client: client}
}

// WriteSection writes the content for node from docs, honoring cfg's
// length band via bounded expand/tighten retries.
func (w *Writer) WriteSection(ctx context.Context, node *outline.Node, docs []document.Document, cfg Config) (Section, error) {
	byURL := make(map[string]document.Document, len(docs))
	for _, d := range docs {
		byURL[d.URL] = d
	}

	var content string
	var err error
	instruction := ""
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if w.client != nil {
			content, err = w.viaLLM(ctx, node, docs, cfg, instruction)
		}
		if w.client == nil || err != nil {
			content = w.fallback(node, docs, cfg)
		}

		length := len(content)
		if cfg.MinLength > 0 && length < cfg.MinLength {
			instruction = "expand"
			continue
		}
		if cfg.MaxLength > 0 && length > cfg.MaxLength {
			instruction = "tighten"
			continue
		}
		break
	}

	if cfg.Depth == ComprehensiveDepth && cfg.MaxLength >= 1500 {
		content = ensureSubheadings(content, node)
	}

	citations := extractCitations(content, byURL)
	if cfg.IncludeCitations {
		if err := verifyClosure(citations, byURL); err != nil {
			return Section{}, err
		}
	}

	return Section{
		OutlineID: node.ID,
		Content:   content,
		Citations: citations,
		WordCount: len(strings.Fields(content)),
	}, nil
}

func (w *Writer) viaLLM(ctx context.Context, node *outline.Node, docs []document.Document, cfg Config, instruction string) (string, error) {
	var docBlock strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&docBlock, "[%s](%s): %s\n\n", d.Title, d.URL, truncate(d.Content, 1500))
	}

	prompt := fmt.Sprintf(
		"Section: %s\nDescription: %s\nKey points: %s\nStyle: %s Tone: %s Depth: %s Audience: %s\nDocuments:\n%s",
		node.Title, node.Description, strings.Join(node.KeyPoints, "; "),
		cfg.Style, cfg.Tone, cfg.Depth, cfg.Audience, docBlock.String(),
	)
	if instruction != "" {
		prompt += "\nInstruction: " + instruction + " the previous draft.\n"
	}
	if cfg.IncludeCitations {
		prompt += "\nCite claims as Markdown links using the document URLs above.\n"
	}

	resp, err := w.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You write long-form report sections in Markdown."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", &taxonomy.ModelError{Stage: "section", Err: err}
	}
	return resp.Text(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var citationLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)

func extractCitations(content string, byURL map[string]document.Document) []Citation {
	matches := citationLinkPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool)
	var citations []Citation
	for _, m := range matches {
		url := m[2]
		if seen[url] {
			continue
		}
		if _, ok := byURL[url]; !ok {
			continue // only URLs from the section's own document set count
		}
		seen[url] = true
		citations = append(citations, Citation{URL: url, Title: m[1]})
	}
	return citations
}

// verifyClosure enforces spec.md §3's Section invariant: every citation's
// URL appears in the documents provided to the writer.
func verifyClosure(citations []Citation, byURL map[string]document.Document) error {
	for _, c := range citations {
		if _, ok := byURL[c.URL]; !ok {
			return &taxonomy.ValidationError{Subject: "section citations", Reason: "citation references a document outside the section's input set"}
		}
	}
	return nil
}
