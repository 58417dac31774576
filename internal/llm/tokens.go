package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter gives an accurate-enough token count for prompt sizing and
// UsageRecord.input_tokens/output_tokens telemetry (spec.md §3).
type TokenCounter struct {
	mu       sync.RWMutex
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	encodingCacheMu sync.RWMutex
	encodingCache   = make(map[string]*tiktoken.Tiktoken)
)

// NewTokenCounter returns a counter for the given model id, falling back to
// the cl100k_base encoding when the model is unrecognized by tiktoken.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encodingCacheMu.RLock()
	enc, ok := encodingCache[model]
	encodingCacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: enc, model: model}, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}

	encodingCacheMu.Lock()
	encodingCache[model] = enc
	encodingCacheMu.Unlock()
	return &TokenCounter{encoding: enc, model: model}, nil
}

// Count returns the token count of a single string.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages counts a full chat turn list, including per-message
// role/delimiter overhead (the OpenAI chat format convention).
func (tc *TokenCounter) CountMessages(messages []Message) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	const perMessageOverhead = 3
	total := perMessageOverhead // primer for the reply
	for _, m := range messages {
		total += perMessageOverhead
		total += len(tc.encoding.Encode(m.Role, nil, nil))
		total += len(tc.encoding.Encode(m.Content, nil, nil))
	}
	return total
}
