package events

import "time"

// Kind identifies the discriminated payload a Event carries (spec.md §3).
type Kind int

const (
	SessionStarted Kind = iota
	StepStarted
	StepProgress
	StepCompleted
	ModelUsage
	AnalysisResult
	SectionGenerated
	ErrorEvent
	Final
)

func (k Kind) String() string {
	switch k {
	case SessionStarted:
		return "SessionStarted"
	case StepStarted:
		return "StepStarted"
	case StepProgress:
		return "StepProgress"
	case StepCompleted:
		return "StepCompleted"
	case ModelUsage:
		return "ModelUsage"
	case AnalysisResult:
		return "AnalysisResult"
	case SectionGenerated:
		return "SectionGenerated"
	case ErrorEvent:
		return "Error"
	case Final:
		return "Final"
	default:
		return "Unknown"
	}
}

// neverDropped reports whether events of this kind must survive backlog
// coalescing under backpressure (spec.md §4.11, §9): only StepProgress is
// ever coalesced.
func (k Kind) neverDropped() bool {
	return k != StepProgress
}

// Event is a single entry on a session's ordered event stream.
type Event struct {
	Seq       uint64
	Timestamp time.Time
	SessionID string
	Step      string // originating component, e.g. "search", "analysis"
	Iteration int
	Kind      Kind
	Data      interface{}
}

// StepProgressData is the payload for StepProgress events — used both for
// routine progress narration and for recoverable error telemetry (spec.md
// §7: ProviderError/RateLimited/ModelError/TimeoutError surface this way).
type StepProgressData struct {
	Message   string
	Progress  float64 // 0.0-1.0, best-effort
	ErrorKind string  // non-empty when this progress event reports a recovered error
	Details   map[string]interface{}
}

// StepStartedData/StepCompletedData mark the boundaries of a pipeline stage.
type StepStartedData struct {
	Message string
}

type StepCompletedData struct {
	Message string
}

// ModelUsageData mirrors spec.md §3's UsageRecord.
type ModelUsageData struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	WallTimeMS   int64
}

// AnalysisResultData carries the dimensional breakdown the Analyzer is the
// sole emitter of (spec.md §4.5).
type AnalysisResultData struct {
	DocumentURL string
	Relevance   float64
	Practicality float64
	Timeliness  float64
	Authority   float64
	Completeness float64
	Accuracy    float64
	Total       float64
}

// SectionGeneratedData reports a completed section (spec.md §4.7).
type SectionGeneratedData struct {
	OutlineID   int
	Title       string
	WordCount   int
	CitationCount int
}

// ErrorData is the payload of a session-fatal ErrorEvent (spec.md §7).
type ErrorData struct {
	Kind    string
	Message string
}

// FinalData wraps the terminal payload: either a completed/degraded report
// or nothing, if the session ended via a JSON-RPC error instead.
type FinalData struct {
	ReportMarkdown string
	Degraded       bool
}

// SessionStartedData is replayed to late subscribers so they can render
// state without having observed the original event (spec.md §4.11).
type SessionStartedData struct {
	SessionID string
	Topic     string
}
