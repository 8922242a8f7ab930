// Package mock provides a test double for the llm.Backend interface.
//
// Use Backend in unit tests to verify that the mediator sends correct
// payloads and to feed controlled responses without a live model service.
// All fields are safe to set before calling any method; mutating them during
// a concurrent call is the caller's responsibility.
//
// Example:
//
//	b := &mock.Backend{Response: "Let's talk about a chore schedule."}
//	text, err := b.Send(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/openmediator/commonground/pkg/provider/llm"
)

// SendCall records a single invocation of Send.
type SendCall struct {
	// Ctx is the context passed to Send.
	Ctx context.Context
	// Req is the request passed to Send.
	Req llm.Request
}

// Backend is a mock implementation of llm.Backend.
// The zero value returns "" and a nil error; set Err to inject failures.
type Backend struct {
	mu sync.Mutex

	// Response is the text returned by Send.
	Response string

	// Err, if non-nil, is returned by Send instead of Response.
	Err error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall
}

// Send implements llm.Backend.
func (b *Backend) Send(ctx context.Context, req llm.Request) (string, error) {
	b.mu.Lock()
	b.SendCalls = append(b.SendCalls, SendCall{Ctx: ctx, Req: req})
	b.mu.Unlock()

	if b.Err != nil {
		return "", b.Err
	}
	return b.Response, nil
}

// Calls returns a snapshot of the recorded Send invocations.
func (b *Backend) Calls() []SendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]SendCall, len(b.SendCalls))
	copy(out, b.SendCalls)
	return out
}
