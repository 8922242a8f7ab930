// Package llm defines the Backend interface for the language-model services
// that power the mediator persona.
//
// A backend wraps either a hosted chat-completion API (e.g., OpenAI) or a
// local inference server (e.g., Ollama) and exposes a uniform send-and-wait
// interface. Both variants accept the same [Request] shape so that callers
// can swap backends through configuration without touching the conversation
// logic.
//
// Implementations must be safe for concurrent use and must never panic on
// transport or protocol failures: every failure mode surfaces as a typed
// [*Error] so the caller always receives something it can display.
package llm

import "context"

// Default sampling parameters. Both backend variants use the same sampling
// configuration so behaviour stays consistent when backends are swapped.
const (
	DefaultTemperature      = 0.7
	DefaultTopP             = 0.9
	DefaultMaxTokens        = 1024
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
)

// Message is a single entry in the conversation payload sent to a backend.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message. For "user" messages the
	// speaker-name prefix is already embedded by the caller.
	Content string
}

// Request is the fully assembled, backend-agnostic conversation context
// ready to send to a model. It is produced by the context builder and
// consumed unchanged by every backend variant.
type Request struct {
	// Messages is the ordered payload: one leading system instruction, the
	// conversation turns, and one trailing system note naming the current
	// speaker.
	Messages []Message

	// CurrentSpeaker is the participant the model should address. Backends
	// that flatten the payload into a single prompt use this to render their
	// own trailing directive.
	CurrentSpeaker string

	// Sampling parameters. The zero value of each field means "use the
	// package default", see [WithDefaults].
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// WithDefaults returns a copy of r with zero-valued sampling parameters
// replaced by the package defaults.
func (r Request) WithDefaults() Request {
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.TopP == 0 {
		r.TopP = DefaultTopP
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// Backend is the abstraction over any language-model service.
//
// Send performs exactly one outbound call per invocation: no retry, no
// backoff. There is no client-side timeout; callers impose their own
// deadline through ctx when they need one.
type Backend interface {
	// Send delivers req to the model and returns the reply text. On any
	// transport, authentication, or malformed-response failure it returns a
	// [*Error] annotated with a human-readable cause; it never panics.
	Send(ctx context.Context, req Request) (string, error)
}
