// Package stt defines the Transcriber interface for Speech-to-Text backends.
//
// Voice clips in this system are short, already-captured recordings, so the
// interface is batch-shaped: one PCM buffer in, one text string out. An empty
// string with a nil error is a recognised result: it means the clip held no
// intelligible speech and the caller should drop it, not report a failure.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Transcriber is the abstraction over any batch speech-to-text backend.
type Transcriber interface {
	// Transcribe runs speech recognition over a clip of single-channel
	// 16-bit signed little-endian PCM audio at sampleRate Hz.
	//
	// Returns the recognised text, which may be empty when the audio holds
	// no recognisable speech. A non-nil error means the transcription call
	// itself failed (network, server, encoding), not that the clip was
	// silent.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}
