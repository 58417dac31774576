// Package document defines the canonical Document record (spec.md §3) and
// the Normalizer that converts provider-specific raw records into it.
package document

import "time"

// SourceType is the category a Document's adapter belongs to.
type SourceType string

const (
	Web      SourceType = "web"
	Academic SourceType = "academic"
	News     SourceType = "news"
)

// Document is the canonical record of a single retrieved item. It is
// produced exclusively by Normalize and is immutable thereafter: every
// field is unexported-by-convention-only in spirit but exported for JSON
// use, and no method mutates a Document in place (spec.md §9, "Document
// sharing").
type Document struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	SourceType  SourceType `json:"source_type"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Authors     []string   `json:"authors,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	Score       float64    `json:"score,omitempty"`
	Language    string     `json:"language,omitempty"`
	Domain      string     `json:"domain"`
}

// Key returns the document's identity for deduplication purposes.
func (d Document) Key() string { return d.URL }
