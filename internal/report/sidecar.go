package report

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Sidecar is the YAML metadata document written alongside the Markdown
// artifact — machine-readable fields the Markdown body only renders for
// humans (quality breakdown, reference count, generation timestamp).
type Sidecar struct {
	Topic        string                 `yaml:"topic"`
	GeneratedAt  time.Time              `yaml:"generated_at"`
	SessionID    string                 `yaml:"session_id"`
	Iterations   int                    `yaml:"iterations"`
	SourcesCount int                    `yaml:"sources_count"`
	Quality      analysisBreakdown      `yaml:"quality"`
	References   int                    `yaml:"reference_count"`
	Metadata     map[string]interface{} `yaml:"metadata,omitempty"`
}

type analysisBreakdown struct {
	MeanTotal        float64 `yaml:"mean_total"`
	DiversityEntropy float64 `yaml:"diversity_entropy"`
	Penalty          float64 `yaml:"penalty"`
	Total            float64 `yaml:"total"`
}

// SidecarFor derives a Sidecar from an assembled Report.
func SidecarFor(r Report) Sidecar {
	return Sidecar{
		Topic:        r.Topic,
		GeneratedAt:  r.GeneratedAt,
		SessionID:    stringField(r.Metadata, "session_id"),
		Iterations:   intField(r.Metadata, "iteration_count"),
		SourcesCount: intField(r.Metadata, "sources_count"),
		Quality: analysisBreakdown{
			MeanTotal:        r.QualityScore.MeanTotal,
			DiversityEntropy: r.QualityScore.DiversityEntropy,
			Penalty:          r.QualityScore.Penalty,
			Total:            r.QualityScore.Total,
		},
		References: len(r.References),
		Metadata:   r.Metadata,
	}
}

// Marshal renders the Sidecar as YAML.
func (s Sidecar) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func stringField(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	default:
		return 0
	}
}
