package session

import (
	"context"
	"testing"
)

func TestNewAssignsUniqueIDsAndCancellableContext(t *testing.T) {
	s1, ctx1 := New(context.Background(), "topic a", 16)
	s2, _ := New(context.Background(), "topic b", 16)

	if s1.ID == "" || s2.ID == "" {
		t.Fatal("expected non-empty session IDs")
	}
	if s1.ID == s2.ID {
		t.Error("expected distinct session IDs")
	}
	if ctx1.Err() != nil {
		t.Fatal("expected a live context before cancellation")
	}
	s1.Cancel()
	if ctx1.Err() == nil {
		t.Error("expected the derived context to be done after Cancel")
	}
}

func TestRecordUsageIsMonotone(t *testing.T) {
	s, _ := New(context.Background(), "topic", 16)
	s.RecordUsage(UsageRecord{Provider: "llm", Model: "m", InputTokens: 10, OutputTokens: 5})
	s.RecordUsage(UsageRecord{Provider: "llm", Model: "m", InputTokens: 20, OutputTokens: 8})

	totals := s.UsageTotals()
	if totals["total_input_tokens"] != 30 {
		t.Errorf("expected cumulative input tokens 30, got %v", totals["total_input_tokens"])
	}
	if totals["model_calls"] != 2 {
		t.Errorf("expected 2 recorded calls, got %v", totals["model_calls"])
	}
	if len(s.UsageSnapshot()) != 2 {
		t.Errorf("expected snapshot length 2, got %d", len(s.UsageSnapshot()))
	}
}

func TestStatusTransitions(t *testing.T) {
	s, _ := New(context.Background(), "topic", 16)
	if s.Status() != StatusPending {
		t.Fatalf("expected initial status pending, got %s", s.Status())
	}
	s.SetStatus(StatusRunning)
	if s.Status() != StatusRunning {
		t.Errorf("expected status running, got %s", s.Status())
	}
}
