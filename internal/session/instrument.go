package session

import (
	"context"
	"time"

	"insightpipeline/internal/llm"
)

// InstrumentedClient wraps a llm.ChatClient so every call is recorded as a
// UsageRecord against the owning Session (spec.md §3, §4.11's ModelUsage
// events) without every component having to know about telemetry.
type InstrumentedClient struct {
	inner    llm.ChatClient
	session  *Session
	provider string
}

// Instrument wraps inner so its calls are attributed to s.
func (s *Session) Instrument(inner llm.ChatClient, provider string) llm.ChatClient {
	if inner == nil {
		return nil
	}
	return &InstrumentedClient{inner: inner, session: s, provider: provider}
}

func (c *InstrumentedClient) Model() string { return c.inner.Model() }

func (c *InstrumentedClient) Chat(ctx context.Context, messages []llm.Message) (*llm.ChatResponse, error) {
	started := time.Now()
	resp, err := c.inner.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	inputTokens, outputTokens := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	if inputTokens == 0 && outputTokens == 0 {
		// The backend omitted its usage block: estimate locally.
		if tc, terr := llm.NewTokenCounter(c.inner.Model()); terr == nil {
			inputTokens = tc.CountMessages(messages)
			outputTokens = tc.Count(resp.Text())
		}
	}
	c.session.RecordUsage(UsageRecord{
		Provider:     c.provider,
		Model:        c.inner.Model(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		WallTimeMS:   time.Since(started).Milliseconds(),
	})
	return resp, nil
}
