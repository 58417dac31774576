package rpc

import (
	"insightpipeline/internal/events"
	"insightpipeline/internal/taxonomy"
)

// Notification is a JSON-RPC 2.0 notification (no id; fire-and-forget).
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// ErrorObject shapes a JSON-RPC 2.0 error per spec.md §6.
type ErrorObject struct {
	JSONRPC string    `json:"jsonrpc"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    ErrorDetail `json:"data"`
}

type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionStartedParams backs `session/started`.
type SessionStartedParams struct {
	SessionID string `json:"session_id"`
}

// MessageParams backs `notifications/message`. Either the status/message
// fields are populated, or Type selects a structured variant ("model_usage",
// "analysis_result", "section_generated") and its own fields are.
type MessageParams struct {
	Status       string                 `json:"status,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Type         string                 `json:"type,omitempty"`
	ModelProvider string                `json:"model_provider,omitempty"`
	ModelName    string                 `json:"model_name,omitempty"`
	InputTokens  int                    `json:"input_tokens,omitempty"`
	OutputTokens int                    `json:"output_tokens,omitempty"`
}

// SessionCompletedParams backs `session/completed`.
type SessionCompletedParams struct {
	SessionID string `json:"session_id"`
}

// ToolsResultParams backs `tools/result`, the terminal payload.
type ToolsResultParams struct {
	Report string `json:"report"`
}

func notify(method string, params interface{}) Notification {
	return Notification{JSONRPC: "2.0", Method: method, Params: params}
}

// SessionStarted builds the `session/started` notification.
func SessionStarted(sessionID string) Notification {
	return notify("session/started", SessionStartedParams{SessionID: sessionID})
}

// SessionCompleted builds the `session/completed` terminal marker.
func SessionCompleted(sessionID string) Notification {
	return notify("session/completed", SessionCompletedParams{SessionID: sessionID})
}

// ToolsResult builds the `tools/result` notification carrying the
// rendered report.
func ToolsResult(markdown string) Notification {
	return notify("tools/result", ToolsResultParams{Report: markdown})
}

// FromEvent translates a bus event into its wire notification. Every Kind
// maps to one of the four spec.md §6 methods; the default branch exists
// only to keep the switch total against future Kind additions.
func FromEvent(ev events.Event) (Notification, bool) {
	switch ev.Kind {
	case events.SessionStarted:
		data, _ := ev.Data.(events.SessionStartedData)
		return SessionStarted(data.SessionID), true

	case events.ModelUsage:
		data, _ := ev.Data.(events.ModelUsageData)
		return notify("notifications/message", MessageParams{
			Type:          "model_usage",
			ModelProvider: data.Provider,
			ModelName:     data.Model,
			InputTokens:   data.InputTokens,
			OutputTokens:  data.OutputTokens,
		}), true

	case events.StepStarted:
		data, _ := ev.Data.(events.StepStartedData)
		return notify("notifications/message", MessageParams{Status: "started", Message: data.Message}), true

	case events.StepProgress:
		data, _ := ev.Data.(events.StepProgressData)
		var details map[string]interface{}
		if data.ErrorKind != "" {
			details = data.Details
			if details == nil {
				details = map[string]interface{}{}
			}
			details["error_kind"] = data.ErrorKind
		}
		return notify("notifications/message", MessageParams{Status: "progress", Message: data.Message, Details: details}), true

	case events.StepCompleted:
		data, _ := ev.Data.(events.StepCompletedData)
		return notify("notifications/message", MessageParams{Status: "completed", Message: data.Message}), true

	case events.AnalysisResult:
		data, _ := ev.Data.(events.AnalysisResultData)
		return notify("notifications/message", MessageParams{
			Type: "analysis_result",
			Details: map[string]interface{}{
				"document_url": data.DocumentURL,
				"relevance":    data.Relevance,
				"practicality": data.Practicality,
				"timeliness":   data.Timeliness,
				"authority":    data.Authority,
				"completeness": data.Completeness,
				"accuracy":     data.Accuracy,
				"total":        data.Total,
			},
		}), true

	case events.SectionGenerated:
		data, _ := ev.Data.(events.SectionGeneratedData)
		return notify("notifications/message", MessageParams{
			Type: "section_generated",
			Details: map[string]interface{}{
				"outline_id":     data.OutlineID,
				"title":          data.Title,
				"word_count":     data.WordCount,
				"citation_count": data.CitationCount,
			},
		}), true

	case events.ErrorEvent:
		data, _ := ev.Data.(events.ErrorData)
		return notify("notifications/message", MessageParams{Status: "error", Message: data.Message, Details: map[string]interface{}{"error_kind": data.Kind}}), true

	case events.Final:
		data, _ := ev.Data.(events.FinalData)
		return ToolsResult(data.ReportMarkdown), true

	default:
		return Notification{}, false
	}
}

// FromError shapes a session-fatal error as a JSON-RPC error object
// (spec.md §6, §7).
func FromError(err error) ErrorObject {
	return ErrorObject{
		JSONRPC: "2.0",
		Error: ErrorBody{
			Code:    taxonomy.RPCCode(err),
			Message: err.Error(),
			Data: ErrorDetail{
				Type:    taxonomy.Kind(err),
				Message: err.Error(),
			},
		},
	}
}
