package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeFieldPreference(t *testing.T) {
	raw := Raw{
		"url":         "https://Example.COM/a?x=1",
		"title":       "  A Title  ",
		"summary":     "the summary",
		"abstract":    "the abstract",
		"publish_date": "2024-03-05",
		"authors":     "Alice, Bob; Carol",
	}

	doc, ok := Normalize("brave", Web, raw)
	if !ok {
		t.Fatal("expected ok=true for a record with a valid URL")
	}
	if doc.Content != "the summary" {
		t.Errorf("expected content to prefer 'summary' over 'abstract', got %q", doc.Content)
	}
	if doc.Title != "A Title" {
		t.Errorf("expected trimmed title, got %q", doc.Title)
	}
	if doc.Domain != "example.com" {
		t.Errorf("expected lowercased host domain, got %q", doc.Domain)
	}
	if len(doc.Authors) != 3 || doc.Authors[0] != "Alice" || doc.Authors[2] != "Carol" {
		t.Errorf("expected 3 split authors, got %v", doc.Authors)
	}
	if doc.PublishDate == nil || doc.PublishDate.Year() != 2024 {
		t.Errorf("expected parsed publish date, got %v", doc.PublishDate)
	}
}

func TestNormalizeMissingURLDropsRecord(t *testing.T) {
	if _, ok := Normalize("brave", Web, Raw{"title": "no url here"}); ok {
		t.Error("expected ok=false for a record without a URL")
	}
	if _, ok := Normalize("brave", Web, Raw{"url": "not-a-url"}); ok {
		t.Error("expected ok=false for an invalid URL")
	}
}

func TestNormalizeBareYear(t *testing.T) {
	doc, ok := Normalize("arxiv", Academic, Raw{"url": "https://arxiv.org/abs/1", "year": 2019})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if doc.PublishDate == nil || doc.PublishDate.Month() != 1 || doc.PublishDate.Day() != 1 {
		t.Errorf("expected a bare year to become YYYY-01-01, got %v", doc.PublishDate)
	}
}

func TestNormalizeUnparseableDateYieldsNil(t *testing.T) {
	doc, ok := Normalize("brave", Web, Raw{"url": "https://example.com/x", "date": "not a date"})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if doc.PublishDate != nil {
		t.Errorf("expected nil publish date for unparseable input, got %v", doc.PublishDate)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := Raw{"url": "https://example.com/a", "content": "body", "authors": []string{"Dana"}}
	d1, _ := Normalize("brave", Web, raw)
	d2, _ := Normalize("brave", Web, raw)
	if diff := cmp.Diff(d1, d2); diff != "" {
		t.Errorf("Normalize is not idempotent (-first +second):\n%s", diff)
	}
}
