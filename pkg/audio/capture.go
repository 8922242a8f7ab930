// Package audio defines the capture-device abstraction and the PCM/WAV
// helpers shared by the voice pipeline.
//
// The two abstractions are:
//
//   - [Capture] opens the audio input device and returns a [Stream].
//   - [Stream] is an open capture session delivering fixed-size PCM frames.
//
// Implementations live in platform-specific sub-packages (audio/malgo for
// the miniaudio-backed microphone device, audio/mock for tests). The
// interfaces are intentionally narrow so the recorder stays decoupled from
// driver details.
package audio

import "context"

// DefaultSampleRate is the capture rate used for transcription-bound audio.
const DefaultSampleRate = 16000

// CaptureConfig describes how the input device should be opened.
type CaptureConfig struct {
	// SampleRate in Hz. The pipeline records at 16 kHz mono for STT.
	SampleRate int

	// Channels is the number of input channels. 1 = mono.
	Channels int

	// FrameSize is the number of samples per delivered frame. Zero lets the
	// implementation choose.
	FrameSize int
}

// Stream is an open capture session.
//
// Callers must call Close when the stream is no longer needed, on every
// exit path; the device handle is held until then. Close is safe to call
// more than once.
type Stream interface {
	// Frames returns a read-only channel delivering raw 16-bit signed
	// little-endian PCM frames as they are captured. The channel is closed
	// by the implementation when the stream ends or Close is called.
	Frames() <-chan []byte

	// Close stops capture and releases the device handle.
	Close() error
}

// Capture opens audio input devices.
//
// Implementations must be safe for concurrent use, but a given device may
// reject a second concurrent open.
type Capture interface {
	// Open acquires the input device and starts delivering frames. Returns
	// an error if the device cannot be opened or ctx is already cancelled.
	Open(ctx context.Context, cfg CaptureConfig) (Stream, error)
}
