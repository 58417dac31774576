// Package rpc decodes session submissions and shapes the JSON-RPC 2.0
// notification/result/error stream the core publishes (spec.md §6).
package rpc

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// TaskType is the recognized report/task shape a submission selects.
type TaskType string

const (
	TaskNewsReport    TaskType = "news_report"
	TaskInsight       TaskType = "insight"
	TaskIndustry      TaskType = "industry"
	TaskResearch      TaskType = "research"
	TaskComprehensive TaskType = "comprehensive"
	TaskSearch        TaskType = "search"
	TaskAnalysis      TaskType = "analysis"
	TaskAuto          TaskType = "auto"
)

// Request is the raw session submission (spec.md §6): `{task, task_type, kwargs}`.
type Request struct {
	Task     string                 `json:"task"`
	TaskType string                 `json:"task_type"`
	Kwargs   map[string]interface{} `json:"kwargs"`
}

// Kwargs is the decoded, defaulted, and bounded form of Request.Kwargs.
type Kwargs struct {
	Days             int      `mapstructure:"days"`
	QualityThreshold float64  `mapstructure:"quality_threshold"`
	MaxIterations    int      `mapstructure:"max_iterations"`
	Companies        []string `mapstructure:"companies"`
	Language         string   `mapstructure:"language"`
	IncludeCitations bool     `mapstructure:"include_citations"`
	AutoConfirm      bool     `mapstructure:"auto_confirm"`
}

// defaultKwargs mirrors spec.md §6's recognized-keys defaults.
func defaultKwargs() Kwargs {
	return Kwargs{
		Days:             7,
		QualityThreshold: 0.7,
		MaxIterations:    3,
		Language:         "zh-CN",
		IncludeCitations: true,
		AutoConfirm:      true,
	}
}

// DecodeKwargs decodes raw into a Kwargs struct, filling unset fields with
// defaults and clamping to the bounds spec.md §6 names. Tolerant of loose
// input types (e.g. a JSON number decoded as float64 into an int field)
// via mapstructure's weakly-typed decode hook plus cast for fields that
// still need manual coercion.
func DecodeKwargs(raw map[string]interface{}) (Kwargs, error) {
	out := defaultKwargs()
	if raw == nil {
		return out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return Kwargs{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Kwargs{}, err
	}

	if v, ok := raw["days"]; ok {
		out.Days = cast.ToInt(v)
	}
	if v, ok := raw["max_iterations"]; ok {
		out.MaxIterations = cast.ToInt(v)
	}
	if v, ok := raw["quality_threshold"]; ok {
		out.QualityThreshold = cast.ToFloat64(v)
	}

	out = clampKwargs(out)
	return out, nil
}

func clampKwargs(k Kwargs) Kwargs {
	if k.Days <= 0 {
		k.Days = 7
	}
	if k.Days > 365 {
		k.Days = 365
	}
	if k.MaxIterations <= 0 {
		k.MaxIterations = 3
	}
	if k.MaxIterations > 10 {
		k.MaxIterations = 10
	}
	if k.QualityThreshold < 0 {
		k.QualityThreshold = 0
	}
	if k.QualityThreshold > 1 {
		k.QualityThreshold = 1
	}
	if k.Language == "" {
		k.Language = "zh-CN"
	}
	return k
}
