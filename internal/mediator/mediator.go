// Package mediator drives one mediation turn: it appends the speaker's
// message to the session transcript, assembles the full backend payload, and
// appends whatever comes back as the mediator's reply.
//
// Backend failures never abort the conversation. The error is rendered as a
// displayable string and stored in place of the reply, so the speaker's turn
// is kept and they can simply send another message.
package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmediator/commonground/internal/observe"
	"github.com/openmediator/commonground/internal/session"
	"github.com/openmediator/commonground/pkg/provider/llm"
)

// Option is a functional option for Mediator.
type Option func(*Mediator)

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mediator) {
		m.log = l
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(mt *observe.Metrics) Option {
	return func(m *Mediator) {
		m.metrics = mt
	}
}

// Mediator binds a session to a model backend.
type Mediator struct {
	sess    *session.Session
	backend llm.Backend
	log     *slog.Logger
	metrics *observe.Metrics
}

// New creates a Mediator for the given session and backend.
func New(sess *session.Session, backend llm.Backend, opts ...Option) *Mediator {
	m := &Mediator{
		sess:    sess,
		backend: backend,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Respond runs one full turn for the session's current speaker: append the
// user message, build the payload over the updated transcript, call the
// backend, and append the reply. On backend failure the returned message
// carries the rendered error text instead; the error is also returned so the
// caller can log or count it, but the session stays consistent either way.
func (m *Mediator) Respond(ctx context.Context, text string) (session.Message, error) {
	speaker := m.sess.Current()
	m.sess.AppendUser(speaker, text)

	req := BuildContext(m.sess.Transcript(), speaker)

	start := time.Now()
	reply, err := m.backend.Send(ctx, req)
	m.metrics.RecordBackendRequest(ctx, time.Since(start), err)
	if err != nil {
		m.log.ErrorContext(ctx, "backend request failed", "speaker", speaker, "error", err)
		return m.sess.AppendAssistant(renderError(err)), fmt.Errorf("mediator: %w", err)
	}

	m.log.DebugContext(ctx, "mediator replied", "speaker", speaker, "chars", len(reply))
	return m.sess.AppendAssistant(reply), nil
}

// renderError turns a backend failure into the text shown as the mediator's
// reply for that turn.
func renderError(err error) string {
	return fmt.Sprintf("I'm sorry, I couldn't respond just now (%v). Please try again.", err)
}
