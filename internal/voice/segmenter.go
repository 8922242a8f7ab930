package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/openmediator/commonground/internal/observe"
	"github.com/openmediator/commonground/pkg/audio"
	"github.com/openmediator/commonground/pkg/provider/diarize"
	"github.com/openmediator/commonground/pkg/provider/stt"
)

// unknownSpeaker labels a clip that could not be diarized.
const unknownSpeaker = "unknown"

// Segment is one attributed piece of a processed recording, ready to feed
// into the conversation as a message from Speaker.
type Segment struct {
	// Speaker is the stable per-recording label ("Person 1", "Person 2", ...)
	// assigned in order of first appearance.
	Speaker string

	// Text is the transcribed speech, never empty.
	Text string
}

// SegmenterOption is a functional option for Segmenter.
type SegmenterOption func(*Segmenter)

// WithSegmenterLogger replaces the default logger.
func WithSegmenterLogger(l *slog.Logger) SegmenterOption {
	return func(s *Segmenter) {
		s.log = l
	}
}

// WithSegmenterMetrics attaches pipeline metrics.
func WithSegmenterMetrics(m *observe.Metrics) SegmenterOption {
	return func(s *Segmenter) {
		s.metrics = m
	}
}

// WithTempDir overrides where the intermediate WAV artifact is written.
func WithTempDir(dir string) SegmenterOption {
	return func(s *Segmenter) {
		s.tempDir = dir
	}
}

// Segmenter turns a finished clip into attributed segments: diarize the
// recording, transcribe each speaker turn, and remap the diarizer's opaque
// labels to stable per-recording names.
//
// The pipeline degrades rather than fails: an unavailable diarizer collapses
// the clip into a single unattributed turn, a failed turn transcription
// drops that turn only, and an empty transcription drops the turn silently.
type Segmenter struct {
	diarizer    diarize.Diarizer
	transcriber stt.Transcriber
	log         *slog.Logger
	metrics     *observe.Metrics
	tempDir     string
}

// NewSegmenter creates a Segmenter over the given diarizer and transcriber.
func NewSegmenter(diarizer diarize.Diarizer, transcriber stt.Transcriber, opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{
		diarizer:    diarizer,
		transcriber: transcriber,
		log:         slog.Default(),
		tempDir:     os.TempDir(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Process runs the full clip pipeline and returns the attributed segments in
// spoken order. An empty result is valid: it means the recording held no
// recognisable speech. The returned error covers only failures that make the
// whole clip unprocessable (artifact I/O, full-clip transcription failure).
func (s *Segmenter) Process(ctx context.Context, clip Clip) ([]Segment, error) {
	wavPath, cleanup, err := s.writeArtifact(clip)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	turns, err := s.diarizeTurns(ctx, clip, wavPath)
	if err != nil {
		return nil, err
	}

	segments, err := s.transcribeTurns(ctx, clip, turns)
	if err != nil {
		return nil, err
	}

	segments = splitSingleUnknown(segments)
	return remapSpeakers(segments), nil
}

// writeArtifact stores the clip as a temporary WAV file for the diarizer and
// returns its path plus a cleanup func that always removes it.
func (s *Segmenter) writeArtifact(clip Clip) (string, func(), error) {
	f, err := os.CreateTemp(s.tempDir, "recording-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("voice: create wav artifact: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("removing wav artifact", "path", path, "error", err)
		}
	}

	if _, err := f.Write(audio.EncodeWAV(clip.PCM, clip.SampleRate, 1)); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("voice: write wav artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("voice: close wav artifact: %w", err)
	}
	return path, cleanup, nil
}

// diarizeTurns returns the speaker turns for the clip. Whenever diarization
// cannot be used the whole clip becomes one unattributed turn.
func (s *Segmenter) diarizeTurns(ctx context.Context, clip Clip, wavPath string) ([]diarize.Turn, error) {
	wholeClip := []diarize.Turn{{
		Speaker: unknownSpeaker,
		Start:   0,
		End:     audio.DurationSeconds(clip.PCM, clip.SampleRate),
	}}

	if !s.diarizer.Available(ctx) {
		s.log.Info("diarizer unavailable, treating clip as a single speaker")
		return wholeClip, nil
	}

	start := time.Now()
	turns, err := s.diarizer.Diarize(ctx, wavPath)
	s.metrics.RecordDiarize(ctx, time.Since(start))
	if err != nil {
		if !errors.Is(err, diarize.ErrUnavailable) {
			s.log.Warn("diarization failed, treating clip as a single speaker", "error", err)
		}
		return wholeClip, nil
	}
	if len(turns) == 0 {
		return wholeClip, nil
	}
	return turns, nil
}

// transcribeTurns transcribes each turn's slice of the clip. A turn whose
// transcription fails or comes back empty is dropped; the rest survive.
func (s *Segmenter) transcribeTurns(ctx context.Context, clip Clip, turns []diarize.Turn) ([]Segment, error) {
	segments := make([]Segment, 0, len(turns))
	for _, turn := range turns {
		pcm := audio.SliceSeconds(clip.PCM, clip.SampleRate, turn.Start, turn.End)
		if len(pcm) == 0 {
			continue
		}

		start := time.Now()
		text, err := s.transcriber.Transcribe(ctx, pcm, clip.SampleRate)
		s.metrics.RecordSTT(ctx, time.Since(start))
		if err != nil {
			if len(turns) == 1 {
				return nil, fmt.Errorf("voice: transcribe clip: %w", err)
			}
			s.log.Warn("transcribing turn failed, turn dropped",
				"speaker", turn.Speaker, "start", turn.Start, "end", turn.End, "error", err)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			s.metrics.RecordDroppedSegment(ctx)
			continue
		}
		segments = append(segments, Segment{Speaker: turn.Speaker, Text: text})
	}
	return segments, nil
}

// splitSingleUnknown applies the degraded-mode heuristic: a lone
// unattributed segment whose text contains several sentences is split on
// ". " with sentences alternating between two synthetic speakers. Anything
// else passes through unchanged.
func splitSingleUnknown(segments []Segment) []Segment {
	if len(segments) != 1 || segments[0].Speaker != unknownSpeaker {
		return segments
	}

	sentences := strings.Split(segments[0].Text, ". ")
	if len(sentences) < 2 {
		return segments
	}

	split := make([]Segment, 0, len(sentences))
	for i, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		split = append(split, Segment{
			Speaker: fmt.Sprintf("Speaker %d", i%2+1),
			Text:    sentence,
		})
	}
	return split
}

// remapSpeakers replaces raw speaker labels with "Person N" names assigned
// in order of first appearance, so the same underlying speaker keeps the
// same name across the whole recording.
func remapSpeakers(segments []Segment) []Segment {
	mapping := make(map[string]string, 2)
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		name, ok := mapping[seg.Speaker]
		if !ok {
			name = fmt.Sprintf("Person %d", len(mapping)+1)
			mapping[seg.Speaker] = name
		}
		out[i] = Segment{Speaker: name, Text: seg.Text}
	}
	return out
}
