package document

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Raw is a provider-specific record prior to normalization: a loosely typed
// bag of fields as decoded from a provider's JSON response.
type Raw map[string]interface{}

// contentFields is the prioritized field list Normalize consults for the
// document body (spec.md §4.2).
var contentFields = []string{"content", "summary", "abstract", "snippet", "description"}

// dateFields is the prioritized field list Normalize consults for the
// publish date (spec.md §4.2).
var dateFields = []string{"publish_date", "published", "date", "year", "publication_date"}

// Normalize converts a provider's raw record into a canonical Document, or
// reports ok=false if the record lacks a usable URL. Pure function of its
// input: calling it twice on the same raw record yields byte-equal output
// (testable property 4).
func Normalize(sourceID string, sourceType SourceType, raw Raw) (Document, bool) {
	rawURL := strings.TrimSpace(asString(raw["url"]))
	parsed, err := url.Parse(rawURL)
	if rawURL == "" || err != nil || parsed.Host == "" {
		return Document{}, false
	}

	doc := Document{
		Title:      strings.TrimSpace(asString(raw["title"])),
		Content:    firstNonEmpty(raw, contentFields),
		URL:        rawURL,
		Source:     sourceID,
		SourceType: sourceType,
		Authors:    parseAuthors(raw["authors"]),
		Venue:      asString(raw["venue"]),
		Score:      asFloat(raw["score"]),
		Language:   asString(raw["language"]),
		Domain:     strings.ToLower(parsed.Host),
	}
	doc.PublishDate = parseDate(raw, dateFields)
	return doc, true
}

func firstNonEmpty(raw Raw, fields []string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(asString(raw[f])); v != "" {
			return v
		}
	}
	return ""
}

func parseAuthors(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
		return lo.FilterMap(parts, func(p string, _ int) (string, bool) {
			p = strings.TrimSpace(p)
			return p, p != ""
		})
	case []string:
		return lo.Filter(t, func(a string, _ int) bool { return strings.TrimSpace(a) != "" })
	case []interface{}:
		return lo.FilterMap(t, func(a interface{}, _ int) (string, bool) {
			s := strings.TrimSpace(asString(a))
			return s, s != ""
		})
	default:
		return nil
	}
}

func parseDate(raw Raw, fields []string) *time.Time {
	for _, f := range fields {
		v, present := raw[f]
		if !present {
			continue
		}
		s := strings.TrimSpace(asString(v))
		if s == "" {
			continue
		}
		if f == "year" {
			if y, err := strconv.Atoi(s); err == nil && y > 0 {
				t := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
				return &t
			}
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05Z", "2006-01-02 15:04:05", "2006/01/02", "January 2, 2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
