package mediator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openmediator/commonground/internal/mediator"
	"github.com/openmediator/commonground/internal/session"
	llmmock "github.com/openmediator/commonground/pkg/provider/llm/mock"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New()
	if err := s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"}); err != nil {
		t.Fatalf("SetProfiles: %v", err)
	}
	s.EnsureGreeting()
	return s
}

func TestRespond_AppendsUserAndReply(t *testing.T) {
	s := newSession(t)
	backend := &llmmock.Backend{Response: "Let's talk about a chore schedule."}
	m := mediator.New(s, backend)

	msg, err := m.Respond(context.Background(), "the dishes are piling up")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if msg.Role != session.RoleAssistant {
		t.Errorf("reply role = %q, want assistant", msg.Role)
	}
	if msg.Text != "Let's talk about a chore schedule." {
		t.Errorf("reply text = %q", msg.Text)
	}

	tr := s.Transcript()
	if len(tr) != 3 {
		t.Fatalf("transcript length = %d, want 3 (greeting, user, reply)", len(tr))
	}
	if tr[1].SpeakerLabel != "Sam" {
		t.Errorf("user message attributed to %q, want Sam", tr[1].SpeakerLabel)
	}
	if !strings.Contains(tr[1].Text, "the dishes are piling up") {
		t.Errorf("user text = %q", tr[1].Text)
	}
}

func TestRespond_PayloadIncludesNewMessageAndSpeakerNote(t *testing.T) {
	s := newSession(t)
	backend := &llmmock.Backend{Response: "ok"}
	m := mediator.New(s, backend)

	if _, err := m.Respond(context.Background(), "the dishes are piling up"); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	calls := backend.Calls()
	if len(calls) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(calls))
	}
	req := calls[0].Req
	if req.CurrentSpeaker != "Sam" {
		t.Errorf("current speaker = %q, want Sam", req.CurrentSpeaker)
	}

	var sawUser, sawNote bool
	for _, msg := range req.Messages {
		if msg.Role == "user" && strings.Contains(msg.Content, "the dishes are piling up") {
			sawUser = true
		}
		if msg.Role == "system" && strings.HasPrefix(msg.Content, "The current speaker is Sam.") {
			sawNote = true
		}
	}
	if !sawUser {
		t.Error("payload must include the just-appended user message")
	}
	if !sawNote {
		t.Error("payload must include the trailing speaker note")
	}
}

func TestRespond_FollowsSpeakerSwitch(t *testing.T) {
	s := newSession(t)
	backend := &llmmock.Backend{Response: "ok"}
	m := mediator.New(s, backend)

	s.Switch() // Alex speaks now

	if _, err := m.Respond(context.Background(), "I do most of them already"); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	req := backend.Calls()[0].Req
	if req.CurrentSpeaker != "Alex" {
		t.Errorf("current speaker = %q, want Alex", req.CurrentSpeaker)
	}
	if got := s.Transcript()[1].SpeakerLabel; got != "Alex" {
		t.Errorf("user message attributed to %q, want Alex", got)
	}
}

func TestRespond_BackendError_KeepsTurnAndShowsText(t *testing.T) {
	s := newSession(t)
	backend := &llmmock.Backend{Err: errors.New("connection refused")}
	m := mediator.New(s, backend)

	msg, err := m.Respond(context.Background(), "hello?")
	if err == nil {
		t.Fatal("expected the backend error to propagate")
	}
	if msg.Role != session.RoleAssistant {
		t.Errorf("error placeholder role = %q, want assistant", msg.Role)
	}
	if !strings.Contains(msg.Text, "connection refused") {
		t.Errorf("placeholder text = %q, want the cause rendered", msg.Text)
	}

	// The speaker's turn is not lost and the conversation continues.
	tr := s.Transcript()
	if len(tr) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(tr))
	}
	if tr[1].Role != session.RoleUser {
		t.Errorf("user turn missing, got role %q", tr[1].Role)
	}

	backend.Err = nil
	backend.Response = "back again"
	if _, err := m.Respond(context.Background(), "retrying"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}
