// Package malgo provides a microphone capture device backed by miniaudio
// via github.com/gen2brain/malgo.
//
// It implements [audio.Capture] for the default system input device. Frames
// are delivered as raw 16-bit signed little-endian PCM. The miniaudio data
// callback runs on an audio thread; frames are handed off through a buffered
// channel and dropped (never blocked on) when the consumer falls behind.
package malgo

import (
	"context"
	"fmt"
	"sync"

	mal "github.com/gen2brain/malgo"

	"github.com/openmediator/commonground/pkg/audio"
)

// Compile-time assertion that Capture implements audio.Capture.
var _ audio.Capture = (*Capture)(nil)

// frameChannelDepth bounds the handoff buffer between the audio thread and
// the consumer. At 16 kHz mono with ~10 ms frames this is over a second of
// slack.
const frameChannelDepth = 128

// Capture opens the default system microphone.
type Capture struct{}

// New returns a Capture for the default input device.
func New() *Capture { return &Capture{} }

// Open implements audio.Capture. It initialises a miniaudio context and a
// capture device, starts it, and returns a [audio.Stream] that delivers PCM
// frames until Close is called.
func (c *Capture) Open(ctx context.Context, cfg audio.CaptureConfig) (audio.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("malgo: context already cancelled: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}

	malCtx, err := mal.InitContext(nil, mal.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}

	s := &stream{
		malCtx: malCtx,
		frames: make(chan []byte, frameChannelDepth),
	}

	devCfg := mal.DefaultDeviceConfig(mal.Capture)
	devCfg.Capture.Format = mal.FormatS16
	devCfg.Capture.Channels = uint32(channels)
	devCfg.SampleRate = uint32(sampleRate)
	devCfg.Alsa.NoMMap = 1
	if cfg.FrameSize > 0 {
		devCfg.PeriodSizeInFrames = uint32(cfg.FrameSize)
	}

	callbacks := mal.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			// Copy: miniaudio reuses the input buffer after the callback.
			frame := make([]byte, len(in))
			copy(frame, in)
			select {
			case s.frames <- frame:
			default:
				// Consumer fell behind; drop rather than stall the audio thread.
			}
		},
	}

	device, err := mal.InitDevice(malCtx.Context, devCfg, callbacks)
	if err != nil {
		malCtx.Uninit()
		malCtx.Free()
		return nil, fmt.Errorf("malgo: init capture device: %w", err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		malCtx.Uninit()
		malCtx.Free()
		return nil, fmt.Errorf("malgo: start capture device: %w", err)
	}

	return s, nil
}

// stream is a live microphone capture session.
type stream struct {
	malCtx *mal.AllocatedContext
	device *mal.Device
	frames chan []byte
	once   sync.Once
}

// Frames implements audio.Stream.
func (s *stream) Frames() <-chan []byte { return s.frames }

// Close implements audio.Stream. It stops the device, releases the handle,
// and closes the frame channel. Safe to call more than once.
func (s *stream) Close() error {
	s.once.Do(func() {
		s.device.Uninit()
		_ = s.malCtx.Uninit()
		s.malCtx.Free()
		close(s.frames)
	})
	return nil
}
