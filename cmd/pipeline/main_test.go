package main

import (
	"strings"
	"testing"

	"insightpipeline/internal/document"
	"insightpipeline/internal/outline"
	"insightpipeline/internal/rpc"
	"insightpipeline/internal/section"
)

func TestReadRequestParsesJSON(t *testing.T) {
	req, err := readRequest(strings.NewReader(`{"task":"EV market report","task_type":"insight","kwargs":{"days":14}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Task != "EV market report" || req.TaskType != "insight" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestReadRequestEmptyStdinYieldsZeroRequest(t *testing.T) {
	req, err := readRequest(strings.NewReader("   \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Task != "" {
		t.Errorf("expected zero request, got %+v", req)
	}
}

func TestSafeTopicStripsUnsafeCharacters(t *testing.T) {
	got := safeTopic("EV Market: 2026 Outlook / Risks?")
	if strings.ContainsAny(got, ":/?") {
		t.Errorf("expected unsafe characters stripped, got %q", got)
	}
}

func TestReportTypeForMapsTaskTypes(t *testing.T) {
	cases := map[rpc.TaskType]outline.ReportType{
		rpc.TaskInsight:    outline.Insight,
		rpc.TaskIndustry:   outline.Industry,
		rpc.TaskResearch:   outline.Research,
		rpc.TaskNewsReport: outline.NewsReport,
		rpc.TaskSearch:     outline.Comprehensive,
	}
	for in, want := range cases {
		if got := reportTypeFor(in); got != want {
			t.Errorf("reportTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeSectionDocsFallsBackWhenScopedIsSparse(t *testing.T) {
	scoped := []document.Document{{URL: "https://a.example"}}
	accumulated := []document.Document{
		{URL: "https://a.example"},
		{URL: "https://b.example"},
		{URL: "https://c.example"},
	}
	merged := mergeSectionDocs(scoped, accumulated)
	if len(merged) != 3 {
		t.Fatalf("expected merge to pad sparse scoped results, got %d", len(merged))
	}
}

func TestMergeSectionDocsKeepsScopedWhenSufficient(t *testing.T) {
	scoped := []document.Document{{URL: "https://a.example"}, {URL: "https://b.example"}, {URL: "https://c.example"}}
	accumulated := []document.Document{{URL: "https://z.example"}}
	merged := mergeSectionDocs(scoped, accumulated)
	if len(merged) != 3 {
		t.Errorf("expected scoped results kept as-is, got %d", len(merged))
	}
}

func TestFillIncompleteSectionsOnlyTouchesUnfinishedEntries(t *testing.T) {
	leaves := []*outline.Node{{ID: 0, Title: "Market"}, {ID: 1, Title: "Risk"}}
	sections := []section.Section{{Content: "finished content"}, {}}
	completed := []bool{true, false}

	fillIncompleteSections(sections, completed, leaves)

	if sections[0].Content != "finished content" {
		t.Errorf("expected completed section untouched, got %q", sections[0].Content)
	}
	if !strings.Contains(sections[1].Content, "Risk") || !strings.Contains(sections[1].Content, "cancelled") {
		t.Errorf("expected placeholder content naming the section, got %q", sections[1].Content)
	}
}
