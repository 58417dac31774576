// Package taxonomy defines the closed error taxonomy the pipeline uses to
// classify failures and decide how they propagate.
package taxonomy

import (
	"errors"
	"fmt"
)

// ConfigError marks a fatal misconfiguration discovered at session start
// (e.g. no providers configured at all).
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Reason) }

// ProviderError marks a retrieval adapter failure (HTTP, parse, or
// provider-side). Recovered locally; the failing task's results are treated
// as empty.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimited marks a provider-signalled rate limit. The provider adapters
// return it once their exponential-backoff retries of the 429 are used up.
type RateLimited struct {
	Provider string
	Attempt  int
}

func (e *RateLimited) Error() string {
	return fmt.Sprintf("provider %s rate limited (attempt %d)", e.Provider, e.Attempt)
}

// ModelError marks an LLM call failure or malformed output. Components with
// a deterministic fallback recover from this locally.
type ModelError struct {
	Stage string
	Err   error
}

func (e *ModelError) Error() string { return fmt.Sprintf("model error in %s: %v", e.Stage, e.Err) }
func (e *ModelError) Unwrap() error { return e.Err }

// TimeoutError marks any bounded wait that exceeded its deadline. Treated as
// an empty result at the task level; surfaced at the session level only if
// the whole session expires.
type TimeoutError struct {
	Operation string
	Budget    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s exceeded its budget of %s", e.Operation, e.Budget)
}

// ValidationError marks a structural invariant violation (outline/section)
// that survived retries. Fatal for the session.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// Cancelled marks cooperative cancellation of a session. Terminal; a partial
// report may still be assembled if the caller opted in.
type Cancelled struct {
	At string
}

func (e *Cancelled) Error() string { return fmt.Sprintf("cancelled at %s", e.At) }

// IsSessionFatal reports whether err must be surfaced as a JSON-RPC error
// rather than absorbed into StepProgress telemetry, per spec.md §7's
// propagation policy: only ConfigError, ValidationError, Cancelled, and a
// whole-session TimeoutError are session-fatal.
func IsSessionFatal(err error) bool {
	if err == nil {
		return false
	}
	var (
		cfgErr   *ConfigError
		valErr   *ValidationError
		cancErr  *Cancelled
		toErr    *TimeoutError
	)
	switch {
	case errors.As(err, &cfgErr):
		return true
	case errors.As(err, &valErr):
		return true
	case errors.As(err, &cancErr):
		return true
	case errors.As(err, &toErr):
		return true
	default:
		return false
	}
}

// RPCCode maps a session-fatal error to a JSON-RPC error code. The codes
// follow the JSON-RPC 2.0 reserved range for server errors (-32000..-32099),
// one per taxonomy member.
func RPCCode(err error) int {
	var (
		cfgErr  *ConfigError
		valErr  *ValidationError
		cancErr *Cancelled
		toErr   *TimeoutError
	)
	switch {
	case errors.As(err, &cfgErr):
		return -32001
	case errors.As(err, &valErr):
		return -32002
	case errors.As(err, &cancErr):
		return -32003
	case errors.As(err, &toErr):
		return -32004
	default:
		return -32000
	}
}

// Kind returns the taxonomy member name for err, used as the `data.type`
// field of a JSON-RPC error object and in StepProgress error metadata.
func Kind(err error) string {
	var (
		cfgErr   *ConfigError
		provErr  *ProviderError
		rlErr    *RateLimited
		modelErr *ModelError
		toErr    *TimeoutError
		valErr   *ValidationError
		cancErr  *Cancelled
	)
	switch {
	case errors.As(err, &cfgErr):
		return "ConfigError"
	case errors.As(err, &provErr):
		return "ProviderError"
	case errors.As(err, &rlErr):
		return "RateLimited"
	case errors.As(err, &modelErr):
		return "ModelError"
	case errors.As(err, &toErr):
		return "TimeoutError"
	case errors.As(err, &valErr):
		return "ValidationError"
	case errors.As(err, &cancErr):
		return "Cancelled"
	default:
		return "Unknown"
	}
}
