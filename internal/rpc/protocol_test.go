package rpc

import (
	"testing"

	"insightpipeline/internal/events"
)

func TestFromEventMapsEveryBusKindToANotification(t *testing.T) {
	cases := []struct {
		name string
		ev   events.Event
		method string
	}{
		{"session started", events.Event{Kind: events.SessionStarted, Data: events.SessionStartedData{SessionID: "s1"}}, "session/started"},
		{"model usage", events.Event{Kind: events.ModelUsage, Data: events.ModelUsageData{Provider: "llm"}}, "notifications/message"},
		{"step started", events.Event{Kind: events.StepStarted, Data: events.StepStartedData{Message: "go"}}, "notifications/message"},
		{"step progress", events.Event{Kind: events.StepProgress, Data: events.StepProgressData{Message: "go"}}, "notifications/message"},
		{"step completed", events.Event{Kind: events.StepCompleted, Data: events.StepCompletedData{Message: "done"}}, "notifications/message"},
		{"analysis result", events.Event{Kind: events.AnalysisResult, Data: events.AnalysisResultData{DocumentURL: "https://a"}}, "notifications/message"},
		{"section generated", events.Event{Kind: events.SectionGenerated, Data: events.SectionGeneratedData{Title: "Market"}}, "notifications/message"},
		{"error", events.Event{Kind: events.ErrorEvent, Data: events.ErrorData{Kind: "ConfigError", Message: "no providers"}}, "notifications/message"},
		{"final", events.Event{Kind: events.Final, Data: events.FinalData{ReportMarkdown: "# r"}}, "tools/result"},
	}
	for _, c := range cases {
		note, ok := FromEvent(c.ev)
		if !ok {
			t.Errorf("%s: expected FromEvent to map %v, got ok=false", c.name, c.ev.Kind)
			continue
		}
		if note.Method != c.method {
			t.Errorf("%s: expected method %q, got %q", c.name, c.method, note.Method)
		}
	}
}

func TestFromEventTagsAnalysisAndSectionPayloadsByType(t *testing.T) {
	note, ok := FromEvent(events.Event{Kind: events.AnalysisResult, Data: events.AnalysisResultData{DocumentURL: "https://a", Total: 0.8}})
	if !ok {
		t.Fatal("expected AnalysisResult to map")
	}
	params, ok := note.Params.(MessageParams)
	if !ok || params.Type != "analysis_result" {
		t.Errorf("expected analysis_result type, got %+v", note.Params)
	}

	note, ok = FromEvent(events.Event{Kind: events.SectionGenerated, Data: events.SectionGeneratedData{Title: "Risk", WordCount: 500}})
	if !ok {
		t.Fatal("expected SectionGenerated to map")
	}
	params, ok = note.Params.(MessageParams)
	if !ok || params.Type != "section_generated" {
		t.Errorf("expected section_generated type, got %+v", note.Params)
	}
}
