// Package outline builds and refines a typed report outline from a topic,
// report type, and sample documents (spec.md §4.6).
package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insightpipeline/internal/document"
	"insightpipeline/internal/llm"
	"insightpipeline/internal/taxonomy"
)

// ReportType selects the section template used for generation.
type ReportType string

const (
	Comprehensive ReportType = "comprehensive"
	Insight       ReportType = "insight"
	Industry      ReportType = "industry"
	Research      ReportType = "research"
	NewsReport    ReportType = "news_report"
)

// MaxDepth bounds outline tree depth (spec.md §3).
const MaxDepth = 4

// Node is a single outline entry. Id is stable within an outline
// (spec.md §3).
type Node struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	KeyPoints   []string `json:"key_points"`
	Children    []*Node  `json:"children,omitempty"`
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Outline is the ordered section tree for a Report.
type Outline struct {
	Topic string
	Type  ReportType
	Roots []*Node
}

// Leaves returns every leaf node in depth-first, in-order traversal — the
// order sections are written and assembled in.
func (o *Outline) Leaves() []*Node {
	var leaves []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			leaves = append(leaves, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range o.Roots {
		walk(r)
	}
	return leaves
}

// Builder constructs outlines via an LLM-backed path with a deterministic
// template fallback (spec.md §9, "LLM-optional design").
type Builder struct {
	client llm.ChatClient
	nextID int
}

func NewBuilder(client llm.ChatClient) *Builder {
	return &Builder{client: client}
}

// BuildOutline produces a validated Outline for topic under reportType,
// informed by sampleDocs.
func (b *Builder) BuildOutline(ctx context.Context, topic string, reportType ReportType, sampleDocs []document.Document) (*Outline, error) {
	b.nextID = 0

	var roots []*Node
	if b.client != nil {
		if llmRoots, err := b.viaLLM(ctx, topic, reportType, sampleDocs); err == nil && len(llmRoots) > 0 {
			roots = llmRoots
		}
	}
	if len(roots) == 0 {
		roots = b.template(topic, reportType)
	}

	o := &Outline{Topic: topic, Type: reportType, Roots: roots}
	if err := validate(o); err != nil {
		return nil, err
	}
	return o, nil
}

// RefineOutline re-plans an outline given free-form feedback, preserving
// ids of unchanged section titles to allow downstream caching
// (spec.md §4.6).
func (b *Builder) RefineOutline(ctx context.Context, o *Outline, feedback string) (*Outline, error) {
	if b.client == nil {
		return o, nil
	}

	prior := map[string]int{}
	for _, n := range allNodes(o.Roots) {
		prior[strings.ToLower(n.Title)] = n.ID
	}

	b.nextID = maxID(o.Roots) + 1
	roots, err := b.viaLLM(ctx, o.Topic+"\nFeedback: "+feedback, o.Type, nil)
	if err != nil || len(roots) == 0 {
		return o, nil
	}
	reassignIDs(roots, prior, &b.nextID)

	refined := &Outline{Topic: o.Topic, Type: o.Type, Roots: roots}
	if err := validate(refined); err != nil {
		return o, nil
	}
	return refined, nil
}

func (b *Builder) viaLLM(ctx context.Context, topic string, reportType ReportType, sampleDocs []document.Document) ([]*Node, error) {
	var docSummary strings.Builder
	for _, d := range sampleDocs {
		fmt.Fprintf(&docSummary, "- %s\n", d.Title)
	}

	resp, err := b.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: `Produce a report outline as JSON: {"sections": [{"title": "...", "description": "...", "key_points": ["...", ...], "children": [...]}]}. 1-3 levels deep. Every leaf needs 3-6 key_points.`},
		{Role: "user", Content: fmt.Sprintf("Topic: %s\nReport type: %s\nSample documents:\n%s", topic, reportType, docSummary.String())},
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed struct {
		Sections []rawNode `json:"sections"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parse outline: %w", err)
	}
	return b.materialize(parsed.Sections), nil
}

type rawNode struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	KeyPoints   []string  `json:"key_points"`
	Children    []rawNode `json:"children"`
}

func (b *Builder) materialize(raw []rawNode) []*Node {
	nodes := make([]*Node, 0, len(raw))
	for _, r := range raw {
		n := &Node{
			ID:          b.allocID(),
			Title:       r.Title,
			Description: r.Description,
			KeyPoints:   r.KeyPoints,
		}
		n.Children = b.materialize(r.Children)
		nodes = append(nodes, n)
	}
	return nodes
}

func (b *Builder) allocID() int {
	id := b.nextID
	b.nextID++
	return id
}

func maxID(nodes []*Node) int {
	max := -1
	for _, n := range allNodes(nodes) {
		if n.ID > max {
			max = n.ID
		}
	}
	return max
}

func allNodes(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		out = append(out, n)
		out = append(out, allNodes(n.Children)...)
	}
	return out
}

func reassignIDs(nodes []*Node, prior map[string]int, next *int) {
	for _, n := range nodes {
		if id, ok := prior[strings.ToLower(n.Title)]; ok {
			n.ID = id
		} else {
			n.ID = *next
			*next++
		}
		reassignIDs(n.Children, prior, next)
	}
}

// validate enforces spec.md §3's outline invariants: unique ids,
// non-empty titles, depth ≤4, ≥1 key point per leaf.
func validate(o *Outline) error {
	if len(o.Roots) == 0 {
		return &taxonomy.ValidationError{Subject: "outline", Reason: "no sections produced"}
	}

	seenID := map[int]bool{}
	var walk func(nodes []*Node, depth int, siblingTitles map[string]bool) error
	walk = func(nodes []*Node, depth int, siblingTitles map[string]bool) error {
		if depth > MaxDepth {
			return &taxonomy.ValidationError{Subject: "outline", Reason: "exceeds maximum depth"}
		}
		for _, n := range nodes {
			if strings.TrimSpace(n.Title) == "" {
				return &taxonomy.ValidationError{Subject: "outline", Reason: "empty section title"}
			}
			if siblingTitles[strings.ToLower(n.Title)] {
				return &taxonomy.ValidationError{Subject: "outline", Reason: fmt.Sprintf("duplicate title %q among siblings", n.Title)}
			}
			siblingTitles[strings.ToLower(n.Title)] = true

			if seenID[n.ID] {
				return &taxonomy.ValidationError{Subject: "outline", Reason: fmt.Sprintf("duplicate id %d", n.ID)}
			}
			seenID[n.ID] = true

			if n.IsLeaf() && len(n.KeyPoints) == 0 {
				return &taxonomy.ValidationError{Subject: "outline", Reason: fmt.Sprintf("leaf %q has no key points", n.Title)}
			}
			if err := walk(n.Children, depth+1, map[string]bool{}); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(o.Roots, 1, map[string]bool{})
}
