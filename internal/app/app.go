// Package app wires the mediation subsystems into a running interactive
// application.
//
// The App owns the full lifecycle: New connects the session, mediator, and
// optional voice pipeline; Run executes the terminal conversation loop until
// the context is cancelled or the user quits; Shutdown tears everything down
// in order.
//
// For testing, inject scripted providers and an in-memory input/output pair
// via functional options.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openmediator/commonground/internal/config"
	"github.com/openmediator/commonground/internal/mediator"
	"github.com/openmediator/commonground/internal/observe"
	"github.com/openmediator/commonground/internal/session"
	"github.com/openmediator/commonground/internal/voice"
	"github.com/openmediator/commonground/pkg/audio"
	"github.com/openmediator/commonground/pkg/provider/diarize"
	"github.com/openmediator/commonground/pkg/provider/llm"
	"github.com/openmediator/commonground/pkg/provider/stt"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	LLM     llm.Backend
	STT     stt.Transcriber
	Diarize diarize.Diarizer
	Capture audio.Capture
}

// App owns the session, the mediator, and the optional voice pipeline.
type App struct {
	cfg       *config.Config
	providers *Providers

	sess      *session.Session
	med       *mediator.Mediator
	recorder  *voice.Recorder
	segmenter *voice.Segmenter

	log       *slog.Logger
	metrics   *observe.Metrics
	in        io.Reader
	out       io.Writer
	typeDelay time.Duration

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithInput replaces stdin as the command source.
func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = r }
}

// WithOutput replaces stdout as the rendering surface.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithMetrics attaches application metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTypeDelay overrides the per-word delay of the typewriter renderer.
// Use 0 in tests.
func WithTypeDelay(d time.Duration) Option {
	return func(a *App) { a.typeDelay = d }
}

// noDiarizer is the permanently unavailable fallback used when no diarize
// provider is configured.
type noDiarizer struct{}

func (noDiarizer) Available(context.Context) bool { return false }
func (noDiarizer) Diarize(context.Context, string) ([]diarize.Turn, error) {
	return nil, diarize.ErrUnavailable
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry); LLM is mandatory,
// the voice slots are optional.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM == nil {
		return nil, errors.New("app: a model backend is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
		sess:      session.New(),
		log:       slog.Default(),
		in:        os.Stdin,
		out:       os.Stdout,
		typeDelay: 50 * time.Millisecond,
	}
	for _, o := range opts {
		o(a)
	}

	if len(cfg.Participants) == 2 {
		err := a.sess.SetProfiles(
			session.Participant{Name: cfg.Participants[0].Name, Color: cfg.Participants[0].Color},
			session.Participant{Name: cfg.Participants[1].Name, Color: cfg.Participants[1].Color},
		)
		if err != nil {
			return nil, fmt.Errorf("app: seed participants: %w", err)
		}
	}

	a.med = mediator.New(a.sess, providers.LLM,
		mediator.WithLogger(a.log),
		mediator.WithMetrics(a.metrics),
	)

	if cfg.Voice.Enabled {
		if err := a.initVoice(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// initVoice builds the recorder and segmenter from the configured providers.
func (a *App) initVoice() error {
	if a.providers.Capture == nil {
		return errors.New("app: voice is enabled but no capture device is available")
	}
	if a.providers.STT == nil {
		return errors.New("app: voice is enabled but no transcriber is configured")
	}

	var recOpts []voice.RecorderOption
	if a.cfg.Voice.MaxRecordSeconds > 0 {
		recOpts = append(recOpts, voice.WithMaxDuration(time.Duration(a.cfg.Voice.MaxRecordSeconds)*time.Second))
	}
	if a.cfg.Voice.SampleRate > 0 {
		recOpts = append(recOpts, voice.WithSampleRate(a.cfg.Voice.SampleRate))
	}
	recOpts = append(recOpts, voice.WithRecorderLogger(a.log), voice.WithRecorderMetrics(a.metrics))
	a.recorder = voice.NewRecorder(a.providers.Capture, recOpts...)

	diarizer := a.providers.Diarize
	if diarizer == nil {
		diarizer = noDiarizer{}
	}
	segOpts := []voice.SegmenterOption{
		voice.WithSegmenterLogger(a.log),
		voice.WithSegmenterMetrics(a.metrics),
	}
	if a.cfg.Voice.TempDir != "" {
		segOpts = append(segOpts, voice.WithTempDir(a.cfg.Voice.TempDir))
	}
	a.segmenter = voice.NewSegmenter(diarizer, a.providers.STT, segOpts...)
	return nil
}

// Session exposes the conversation state, mainly for tests.
func (a *App) Session() *session.Session { return a.sess }

// ─── Run ─────────────────────────────────────────────────────────────────────

const instructions = `Welcome to Common Ground.
This is a space for two people to work through shared-living issues with a
neutral mediator. Take turns speaking; the mediator tracks who is talking.

Commands:
  /switch              hand the conversation to the other participant
  /speaker <name>      declare yourself the current speaker
  /names <a> <b>       set both participant names (once per session)
  /rename <old> <new>  change a participant's name
  /record              start a voice recording
  /stop                stop the voice recording
  /quit                end the session
Anything else is sent to the mediator as the current speaker.`

// Run executes the interactive loop until ctx is cancelled or the user
// quits. It renders the greeting, consumes commands and messages from the
// input, and feeds processed voice clips into the conversation as they
// arrive.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, instructions)
	fmt.Fprintln(a.out)

	if a.sess.EnsureGreeting() {
		a.printAssistant(session.Greeting)
	}

	lines := a.readLines(ctx)
	clips := a.clipResults()

	for {
		fmt.Fprintf(a.out, "\n[%s] > ", a.sess.Current())

		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return ctx.Err()

		case clip, ok := <-clips:
			if !ok {
				clips = nil
				continue
			}
			a.handleClip(ctx, clip)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "/") {
				if quit := a.handleCommand(ctx, line); quit {
					return nil
				}
				continue
			}
			a.handleMessage(ctx, line)
		}
	}
}

// readLines pumps input lines into a channel so the main loop can also react
// to context cancellation and finished voice clips.
func (a *App) readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	scanner := bufio.NewScanner(a.in)
	go func() {
		defer close(out)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// clipResults returns the recorder's result channel, or a nil channel when
// voice is disabled so the select simply never fires.
func (a *App) clipResults() <-chan voice.Clip {
	if a.recorder == nil {
		return nil
	}
	return a.recorder.Results()
}

// ─── Command handling ────────────────────────────────────────────────────────

// handleCommand dispatches one slash command. Reports whether the loop
// should exit.
func (a *App) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Fprintln(a.out, "Session ended. Take care of each other.")
		return true

	case "/help":
		fmt.Fprintln(a.out, instructions)

	case "/switch":
		name := a.sess.Switch()
		fmt.Fprintf(a.out, "Currently speaking: %s\n", name)

	case "/speaker":
		if len(fields) < 2 {
			fmt.Fprintln(a.out, "usage: /speaker <name>")
			return false
		}
		name := strings.Join(fields[1:], " ")
		if err := a.sess.SetCurrent(name); err != nil {
			fmt.Fprintf(a.out, "%v\n", err)
			return false
		}
		fmt.Fprintf(a.out, "Currently speaking: %s\n", name)

	case "/names":
		if len(fields) != 3 {
			fmt.Fprintln(a.out, "usage: /names <first> <second>")
			return false
		}
		err := a.sess.SetProfiles(
			session.Participant{Name: fields[1]},
			session.Participant{Name: fields[2]},
		)
		if err != nil {
			fmt.Fprintf(a.out, "%v\n", err)
			return false
		}
		fmt.Fprintf(a.out, "Participants: %s and %s\n", fields[1], fields[2])

	case "/rename":
		if len(fields) != 3 {
			fmt.Fprintln(a.out, "usage: /rename <old> <new>")
			return false
		}
		if err := a.sess.Rename(fields[1], fields[2]); err != nil {
			fmt.Fprintf(a.out, "%v\n", err)
			return false
		}
		fmt.Fprintf(a.out, "%s is now %s\n", fields[1], fields[2])

	case "/record":
		a.startRecording(ctx)

	case "/stop":
		a.stopRecording()

	default:
		fmt.Fprintf(a.out, "unknown command %q — try /help\n", fields[0])
	}
	return false
}

// handleMessage runs one text turn through the mediator and renders the
// reply. Backend failures are already rendered as the reply text, so the
// error is only logged here.
func (a *App) handleMessage(ctx context.Context, text string) {
	msg, err := a.med.Respond(ctx, text)
	if err != nil {
		a.log.Warn("mediator turn failed", "error", err)
	}
	a.printAssistant(msg.Text)
}

// ─── Voice handling ──────────────────────────────────────────────────────────

func (a *App) startRecording(ctx context.Context) {
	if a.recorder == nil {
		fmt.Fprintln(a.out, "voice is not enabled — set voice.enabled in the config")
		return
	}
	if err := a.recorder.Start(ctx); err != nil {
		fmt.Fprintf(a.out, "%v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Recording... use /stop to finish.")
}

func (a *App) stopRecording() {
	if a.recorder == nil || !a.recorder.Recording() {
		fmt.Fprintln(a.out, "no recording in progress")
		return
	}
	a.recorder.Stop()
	fmt.Fprintln(a.out, "Recording stopped, processing...")
}

// handleClip segments a finished recording and feeds each attributed segment
// through the mediator, one turn at a time, in spoken order.
func (a *App) handleClip(ctx context.Context, clip voice.Clip) {
	segments, err := a.segmenter.Process(ctx, clip)
	if err != nil {
		fmt.Fprintf(a.out, "could not process the recording: %v\n", err)
		return
	}
	if len(segments) == 0 {
		fmt.Fprintln(a.out, "no speech recognised in the recording")
		return
	}

	for _, seg := range segments {
		speaker := a.mapSegmentSpeaker(seg.Speaker)
		if err := a.sess.SetCurrent(speaker); err != nil {
			a.log.Warn("segment speaker not in session", "speaker", speaker, "error", err)
		}
		a.metrics.RecordVoiceSegment(ctx, seg.Speaker)

		fmt.Fprintf(a.out, "\n**%s**: %s\n", a.sess.Current(), seg.Text)
		a.handleMessage(ctx, seg.Text)
	}
}

// mapSegmentSpeaker maps the segmenter's per-recording labels onto the
// session's participants: the first detected voice is the first participant,
// the second the other. Further voices fall back to the current speaker.
func (a *App) mapSegmentSpeaker(label string) string {
	pa, pb := a.sess.Participants()
	switch label {
	case "Person 1":
		return pa.Name
	case "Person 2":
		return pb.Name
	default:
		return a.sess.Current()
	}
}

// ─── Rendering ───────────────────────────────────────────────────────────────

// printAssistant renders a mediator reply word by word, imitating a typing
// model.
func (a *App) printAssistant(text string) {
	fmt.Fprint(a.out, "\nMediator: ")
	words := strings.Fields(text)
	for i, w := range words {
		if i > 0 {
			fmt.Fprint(a.out, " ")
		}
		fmt.Fprint(a.out, w)
		if a.typeDelay > 0 {
			time.Sleep(a.typeDelay)
		}
	}
	fmt.Fprintln(a.out)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down the voice pipeline. It respects the context deadline:
// if ctx expires before the recorder finishes, the error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		if a.recorder == nil {
			return
		}
		done := make(chan error, 1)
		go func() { done <- a.recorder.Close() }()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}
