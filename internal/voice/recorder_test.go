package voice_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmediator/commonground/internal/voice"
	"github.com/openmediator/commonground/pkg/audio"
	audiomock "github.com/openmediator/commonground/pkg/audio/mock"
)

// collectClips closes the recorder and gathers everything on Results.
func collectClips(t *testing.T, r *voice.Recorder) []voice.Clip {
	t.Helper()
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var clips []voice.Clip
	for c := range r.Results() {
		clips = append(clips, c)
	}
	return clips
}

func TestRecorder_DeliversConcatenatedFrames(t *testing.T) {
	capture := &audiomock.Capture{
		Frames: [][]byte{{1, 2}, {3, 4}, {5, 6}},
	}
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clips := collectClips(t, r)
	if len(clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(clips))
	}
	if !bytes.Equal(clips[0].PCM, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("pcm = %v, want frames concatenated in order", clips[0].PCM)
	}
	if clips[0].SampleRate != audio.DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", clips[0].SampleRate, audio.DefaultSampleRate)
	}
}

func TestRecorder_OpensDeviceMono16k(t *testing.T) {
	capture := &audiomock.Capture{}
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	collectClips(t, r)

	cfg := capture.LastConfig
	if cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("channels = %d, want 1", cfg.Channels)
	}
}

func TestRecorder_SecondStartRejected(t *testing.T) {
	capture := &audiomock.Capture{HoldOpen: true}
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, voice.ErrAlreadyRecording) {
		t.Errorf("second Start = %v, want ErrAlreadyRecording", err)
	}
	if capture.OpenCount != 1 {
		t.Errorf("device opened %d times, want 1", capture.OpenCount)
	}
	collectClips(t, r)
}

func TestRecorder_OpenFailure_LeavesRecorderIdle(t *testing.T) {
	capture := &audiomock.Capture{OpenErr: errors.New("device busy")}
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected the device error to propagate")
	}
	if r.Recording() {
		t.Error("failed Start must leave the recorder idle")
	}

	// The recorder must accept a new Start after the failure.
	capture.OpenErr = nil
	if err := r.Start(context.Background()); err != nil {
		t.Errorf("Start after failure: %v", err)
	}
	collectClips(t, r)
}

func TestRecorder_EmptyRecordingDiscarded(t *testing.T) {
	capture := &audiomock.Capture{} // no frames
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if clips := collectClips(t, r); len(clips) != 0 {
		t.Errorf("clips = %d, want 0 for an empty recording", len(clips))
	}
}

func TestRecorder_StopReleasesDevice(t *testing.T) {
	capture := &audiomock.Capture{
		Frames:   [][]byte{{9, 9}},
		HoldOpen: true,
	}
	r := voice.NewRecorder(capture)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()

	clips := collectClips(t, r)
	if len(clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(clips))
	}
	streams := capture.Streams()
	if len(streams) != 1 || !streams[0].Closed() {
		t.Error("device stream must be closed after Stop")
	}
	if r.Recording() {
		t.Error("recorder must be idle after the clip is delivered")
	}
}

func TestRecorder_ContextCancel_DiscardsClipAndClosesDevice(t *testing.T) {
	capture := &audiomock.Capture{
		Frames:   [][]byte{{1, 1}},
		HoldOpen: true,
	}
	r := voice.NewRecorder(capture)

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	if clips := collectClips(t, r); len(clips) != 0 {
		t.Errorf("clips = %d, want 0 after cancellation", len(clips))
	}
	streams := capture.Streams()
	if len(streams) != 1 || !streams[0].Closed() {
		t.Error("device stream must be closed after cancellation")
	}
}

func TestRecorder_MaxDurationStopsCapture(t *testing.T) {
	capture := &audiomock.Capture{
		Frames:   [][]byte{{7, 7}},
		HoldOpen: true,
	}
	r := voice.NewRecorder(capture, voice.WithMaxDuration(20*time.Millisecond))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for r.Recording() {
		select {
		case <-deadline:
			t.Fatal("recording did not stop at the duration cap")
		case <-time.After(5 * time.Millisecond):
		}
	}

	clips := collectClips(t, r)
	if len(clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(clips))
	}
	streams := capture.Streams()
	if len(streams) != 1 || !streams[0].Closed() {
		t.Error("device stream must be closed after the cap fires")
	}
}
