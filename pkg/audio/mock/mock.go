// Package mock provides a scripted test double for the audio.Capture
// interface.
//
// A mock Capture delivers a pre-programmed sequence of PCM frames, or fails
// to open, letting recorder tests exercise every capture exit path without
// touching a real device.
package mock

import (
	"context"
	"sync"

	"github.com/openmediator/commonground/pkg/audio"
)

// Capture is a mock implementation of audio.Capture.
type Capture struct {
	mu sync.Mutex

	// Frames is the sequence of PCM frames delivered by the opened stream,
	// in order. May be empty to simulate a recording that produced nothing.
	Frames [][]byte

	// OpenErr, if non-nil, is returned by Open to simulate a device that
	// cannot be acquired.
	OpenErr error

	// HoldOpen keeps the frame channel open after all scripted frames are
	// delivered, so the recorder must stop via its own flag or timeout.
	HoldOpen bool

	// OpenCount is the number of Open invocations.
	OpenCount int

	// LastConfig records the config passed to the most recent Open.
	LastConfig audio.CaptureConfig

	// streams tracks every stream handed out, so tests can assert Close was
	// called on each exit path.
	streams []*Stream
}

// Open implements audio.Capture.
func (c *Capture) Open(ctx context.Context, cfg audio.CaptureConfig) (audio.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.OpenCount++
	c.LastConfig = cfg
	if c.OpenErr != nil {
		return nil, c.OpenErr
	}

	s := &Stream{frames: make(chan []byte, len(c.Frames)+1)}
	for _, f := range c.Frames {
		s.frames <- f
	}
	if !c.HoldOpen {
		close(s.frames)
		s.preClosed = true
	}
	c.streams = append(c.streams, s)
	return s, nil
}

// Streams returns every stream handed out so far.
func (c *Capture) Streams() []*Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Stream, len(c.streams))
	copy(out, c.streams)
	return out
}

// Stream is the mock capture session returned by [Capture.Open].
type Stream struct {
	mu        sync.Mutex
	frames    chan []byte
	closed    bool
	preClosed bool
}

// Frames implements audio.Stream.
func (s *Stream) Frames() <-chan []byte { return s.frames }

// Close implements audio.Stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.preClosed {
		close(s.frames)
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
