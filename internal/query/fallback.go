package query

import "fmt"

// fallback builds deterministic queries from templates when the LLM backend
// is unavailable (spec.md §4.4, §9 "LLM-optional design").
func fallback(topic string, strategy Strategy, qctx Context) []Query {
	switch strategy {
	case Iterative:
		return fallbackIterative(topic, qctx)
	case Targeted:
		return fallbackTargeted(qctx)
	case Academic:
		return tag(strategy,
			fmt.Sprintf("%s research paper", topic),
			fmt.Sprintf("%s peer reviewed study", topic),
		)
	case News:
		return tag(strategy,
			fmt.Sprintf("%s latest news", topic),
			fmt.Sprintf("%s this week", topic),
		)
	default: // Initial
		return fallbackInitial(topic, qctx)
	}
}

func fallbackInitial(topic string, qctx Context) []Query {
	texts := []string{
		fmt.Sprintf("%s overview", topic),
		fmt.Sprintf("%s key trends", topic),
		fmt.Sprintf("%s recent developments", topic),
		fmt.Sprintf("%s analysis", topic),
	}
	for _, c := range qctx.Companies {
		texts = append(texts, fmt.Sprintf("%s %s", topic, c))
	}
	return tag(Initial, texts...)
}

func fallbackIterative(topic string, qctx Context) []Query {
	if len(qctx.MissingAspects) == 0 {
		return tag(Iterative, fmt.Sprintf("%s additional coverage", topic))
	}
	texts := make([]string, 0, len(qctx.MissingAspects))
	for _, aspect := range qctx.MissingAspects {
		texts = append(texts, fmt.Sprintf("%s %s", topic, aspect))
	}
	return tag(Iterative, texts...)
}

func fallbackTargeted(qctx Context) []Query {
	if qctx.SectionTitle == "" {
		return nil
	}
	texts := []string{qctx.SectionTitle}
	if qctx.SectionDescription != "" {
		texts = append(texts, fmt.Sprintf("%s %s", qctx.SectionTitle, qctx.SectionDescription))
	}
	return tag(Targeted, texts...)
}

func tag(strategy Strategy, texts ...string) []Query {
	queries := make([]Query, len(texts))
	for i, t := range texts {
		queries[i] = Query{Text: t, Strategy: strategy}
	}
	return queries
}
