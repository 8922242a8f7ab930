// Package diarize defines the Diarizer interface for speaker-diarization
// backends: partitioning a recording into time-stamped turns attributed to
// distinct (opaque) speaker labels.
//
// Diarization is an optional capability. A missing backend is a recognised
// degraded mode, not an error: callers check [Diarizer.Available] (or match
// [ErrUnavailable]) and fall back to single-speaker handling. The
// availability signal is a typed status consumed by the voice segmenter's
// state machine, never a side-channel log line.
package diarize

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Diarize when the backend cannot provide
// diarization (missing access token, sidecar not running). Callers treat
// this as the degraded single-speaker mode, not a failure.
var ErrUnavailable = errors.New("diarization unavailable")

// Turn is one speaker-attributed time range within a clip.
type Turn struct {
	// Speaker is the opaque label assigned by the backend (e.g.,
	// "SPEAKER_00"). Labels are only meaningful within one clip.
	Speaker string

	// Start and End are offsets into the clip, in seconds.
	Start float64
	End   float64
}

// Diarizer is the abstraction over any speaker-diarization backend.
//
// Implementations must be safe for concurrent use.
type Diarizer interface {
	// Available reports whether the backend can currently serve requests.
	// A false result means Diarize would return [ErrUnavailable].
	Available(ctx context.Context) bool

	// Diarize partitions the audio file at wavPath into speaker turns,
	// ordered by start time. Returns [ErrUnavailable] (possibly wrapped)
	// when the capability is absent.
	Diarize(ctx context.Context, wavPath string) ([]Turn, error)
}
