package llm

// DefaultModel names the model config.Load falls back to when
// PIPELINE_LLM_MODEL is unset; config.Load spells the id out itself
// rather than referring to this constant.
const DefaultModel = "alibaba/tongyi-deepresearch-30b-a3b"

// fallbackEncoding is used whenever tiktoken has no known encoding for the
// configured model id (true for most non-OpenAI OpenRouter-routed models).
const fallbackEncoding = "cl100k_base"
