package outline

import "fmt"

// template builds a deterministic outline when the LLM backend is
// unavailable (spec.md §9). Each report type gets a distinct section
// layout; key points are generic placeholders scoped to the topic.
func (b *Builder) template(topic string, reportType ReportType) []*Node {
	switch reportType {
	case Insight:
		return b.sections(topic, []sectionSpec{
			{"Key Insight", "The central finding on %s."},
			{"Supporting Evidence", "Data and sources underpinning the insight on %s."},
			{"Implications", "What the insight on %s means going forward."},
		})
	case Industry:
		return b.sections(topic, []sectionSpec{
			{"Market Landscape", "Current state of the %s market."},
			{"Key Players", "Leading organizations shaping %s."},
			{"Regulatory Environment", "Policy and regulatory factors affecting %s."},
			{"Outlook", "Projected trajectory for %s."},
		})
	case Research:
		return b.sections(topic, []sectionSpec{
			{"Background", "Context and prior work on %s."},
			{"Methodology and Findings", "How the evidence on %s was gathered and what it shows."},
			{"Discussion", "Interpretation of findings on %s."},
			{"Conclusion", "Summary and open questions for %s."},
		})
	case NewsReport:
		return b.sections(topic, []sectionSpec{
			{"What Happened", "The latest developments in %s."},
			{"Context", "Background needed to understand %s."},
			{"Reactions and Next Steps", "Responses to and expected follow-through on %s."},
		})
	default: // Comprehensive
		return b.sections(topic, []sectionSpec{
			{"Overview", "A broad introduction to %s."},
			{"Current State", "Where things stand today with %s."},
			{"Key Trends", "The forces shaping %s."},
			{"Challenges and Risks", "What could go wrong with %s."},
			{"Outlook", "Where %s is headed."},
		})
	}
}

type sectionSpec struct {
	title       string
	descFormat  string
}

func (b *Builder) sections(topic string, specs []sectionSpec) []*Node {
	nodes := make([]*Node, len(specs))
	for i, s := range specs {
		nodes[i] = &Node{
			ID:          b.allocID(),
			Title:       s.title,
			Description: fmt.Sprintf(s.descFormat, topic),
			KeyPoints: []string{
				fmt.Sprintf("Define the scope of %s relevant to this section.", topic),
				fmt.Sprintf("Cite at least one concrete data point about %s.", topic),
				"Note any open uncertainty.",
			},
		}
	}
	return nodes
}
