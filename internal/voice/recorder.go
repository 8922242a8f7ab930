// Package voice implements the capture half of the voice pipeline: the
// recorder that pulls PCM frames from the input device, and the segmenter
// that turns a finished clip into attributed conversation segments.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openmediator/commonground/internal/observe"
	"github.com/openmediator/commonground/pkg/audio"
)

// DefaultMaxDuration caps a single recording. Recording stops automatically
// once the cap is reached even if no stop request arrives.
const DefaultMaxDuration = 60 * time.Second

// ErrAlreadyRecording is returned by Start while a recording is in flight.
// At most one recording exists at a time.
var ErrAlreadyRecording = errors.New("voice: a recording is already in progress")

// Clip is one finished recording: raw mono 16-bit signed little-endian PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// RecorderOption is a functional option for Recorder.
type RecorderOption func(*Recorder)

// WithMaxDuration overrides the recording cap.
func WithMaxDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.maxDuration = d
	}
}

// WithSampleRate overrides the capture sample rate.
func WithSampleRate(hz int) RecorderOption {
	return func(r *Recorder) {
		r.sampleRate = hz
	}
}

// WithRecorderLogger replaces the default logger.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = l
	}
}

// WithRecorderMetrics attaches recording metrics.
func WithRecorderMetrics(m *observe.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// Recorder drives the input device. One recording at a time: Start opens the
// device and accumulates frames until Stop is called, the cap elapses, or
// the context is cancelled. Finished non-empty clips arrive on Results.
type Recorder struct {
	capture     audio.Capture
	sampleRate  int
	maxDuration time.Duration
	log         *slog.Logger
	metrics     *observe.Metrics

	mu        sync.Mutex
	recording bool
	stop      chan struct{}

	group   errgroup.Group
	results chan Clip
}

// NewRecorder creates a Recorder over the given capture device.
func NewRecorder(capture audio.Capture, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		capture:     capture,
		sampleRate:  audio.DefaultSampleRate,
		maxDuration: DefaultMaxDuration,
		log:         slog.Default(),
		results:     make(chan Clip, 4),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Results delivers finished clips. A recording that captured no frames
// produces nothing here.
func (r *Recorder) Results() <-chan Clip { return r.results }

// Recording reports whether a recording is in flight.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start opens the input device and begins accumulating frames in the
// background. Returns [ErrAlreadyRecording] while a recording is in flight,
// or the device error if the device cannot be acquired; a failed Start
// leaves the recorder idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}

	stream, err := r.capture.Open(ctx, audio.CaptureConfig{
		SampleRate: r.sampleRate,
		Channels:   1,
	})
	if err != nil {
		r.mu.Unlock()
		return err
	}

	stop := make(chan struct{})
	r.recording = true
	r.stop = stop
	r.mu.Unlock()

	r.metrics.RecordingStarted(ctx)
	r.log.InfoContext(ctx, "recording started", "sample_rate", r.sampleRate, "max_duration", r.maxDuration)

	r.group.Go(func() error {
		r.run(ctx, stream, stop)
		return nil
	})
	return nil
}

// Stop requests the in-flight recording to finish. It returns immediately;
// the clip arrives on Results once the device is released. Stopping an idle
// recorder is a no-op.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording && r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

// Close stops any in-flight recording, waits for the capture goroutine, and
// closes the Results channel.
func (r *Recorder) Close() error {
	r.Stop()
	err := r.group.Wait()
	close(r.results)
	return err
}

// run is the capture loop. It owns the stream and closes it on every exit
// path before emitting the clip.
func (r *Recorder) run(ctx context.Context, stream audio.Stream, stop chan struct{}) {
	timer := time.NewTimer(r.maxDuration)
	defer timer.Stop()

	var pcm []byte
	cancelled := false

loop:
	for {
		select {
		case <-ctx.Done():
			cancelled = true
			break loop
		case <-stop:
			break loop
		case <-timer.C:
			r.log.Info("recording reached maximum duration", "max_duration", r.maxDuration)
			break loop
		case frame, ok := <-stream.Frames():
			if !ok {
				break loop
			}
			pcm = append(pcm, frame...)
		}
	}

	// Flush frames the device already buffered before the stop arrived.
	if !cancelled {
	drain:
		for {
			select {
			case frame, ok := <-stream.Frames():
				if !ok {
					break drain
				}
				pcm = append(pcm, frame...)
			default:
				break drain
			}
		}
	}

	if err := stream.Close(); err != nil {
		r.log.Warn("closing capture stream", "error", err)
	}

	r.mu.Lock()
	r.recording = false
	r.stop = nil
	r.mu.Unlock()

	r.metrics.RecordingStopped(context.WithoutCancel(ctx))

	if cancelled {
		r.log.Info("recording cancelled, clip discarded", "bytes", len(pcm))
		return
	}
	if len(pcm) == 0 {
		r.log.Info("recording produced no audio, clip discarded")
		return
	}

	clip := Clip{PCM: pcm, SampleRate: r.sampleRate}
	select {
	case r.results <- clip:
		r.log.Info("recording finished",
			"bytes", len(pcm),
			"seconds", audio.DurationSeconds(pcm, r.sampleRate))
	default:
		r.log.Warn("results queue full, clip dropped", "bytes", len(pcm))
	}
}
