package session

// UsageRecord is one LLM call's token and timing telemetry (spec.md §3).
type UsageRecord struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	WallTimeMS   int64
}
