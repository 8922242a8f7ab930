// Package mock provides a test double for the stt.Transcriber interface.
package mock

import (
	"context"
	"sync"
)

// Call records a single invocation of Transcribe.
type Call struct {
	PCM        []byte
	SampleRate int
}

// Transcriber is a mock implementation of stt.Transcriber.
//
// Responses are consumed in order from Texts; once exhausted the zero text
// is returned. Set Err (or a per-index entry in Errs) to inject failures.
type Transcriber struct {
	mu sync.Mutex

	// Texts is the sequence of transcription results, consumed per call.
	Texts []string

	// Errs maps call index (0-based) to an injected error for that call.
	Errs map[int]error

	// Err, if non-nil, is returned by every call (takes precedence over
	// Texts and Errs).
	Err error

	// Calls records every invocation in order.
	Calls []Call
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(_ context.Context, pcm []byte, sampleRate int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.Calls)
	t.Calls = append(t.Calls, Call{PCM: pcm, SampleRate: sampleRate})

	if t.Err != nil {
		return "", t.Err
	}
	if err, ok := t.Errs[idx]; ok {
		return "", err
	}
	if idx < len(t.Texts) {
		return t.Texts[idx], nil
	}
	return "", nil
}

// CallCount returns the number of Transcribe invocations so far.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}
