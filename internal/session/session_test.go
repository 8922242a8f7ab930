package session_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/openmediator/commonground/internal/session"
)

// ---- profile transition -----------------------------------------------------

func TestNew_StartsWithPlaceholders(t *testing.T) {
	s := session.New()

	if s.ProfilesSet() {
		t.Error("new session must start in the no-profile-set state")
	}
	if got := s.Current(); got != session.DefaultNameA {
		t.Errorf("current = %q, want %q", got, session.DefaultNameA)
	}
}

func TestSetProfiles_FiresOnce(t *testing.T) {
	s := session.New()

	if err := s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"}); err != nil {
		t.Fatalf("SetProfiles: %v", err)
	}
	if !s.ProfilesSet() {
		t.Error("ProfilesSet must report true after the transition")
	}
	if got := s.Current(); got != "Sam" {
		t.Errorf("current = %q, want %q (first placeholder was active)", got, "Sam")
	}

	err := s.SetProfiles(session.Participant{Name: "X"}, session.Participant{Name: "Y"})
	if !errors.Is(err, session.ErrProfilesAlreadySet) {
		t.Errorf("second SetProfiles = %v, want ErrProfilesAlreadySet", err)
	}
}

func TestSetProfiles_RejectsEmptyAndDuplicateNames(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"empty first", "", "Alex"},
		{"empty second", "Sam", ""},
		{"duplicate", "Sam", "Sam"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := session.New()
			if err := s.SetProfiles(session.Participant{Name: tc.a}, session.Participant{Name: tc.b}); err == nil {
				t.Errorf("SetProfiles(%q, %q) succeeded, want error", tc.a, tc.b)
			}
			if s.ProfilesSet() {
				t.Error("failed SetProfiles must not fire the transition")
			}
		})
	}
}

// ---- current speaker --------------------------------------------------------

func TestSwitch_Toggles(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if got := s.Switch(); got != "Alex" {
		t.Errorf("first switch = %q, want Alex", got)
	}
	if got := s.Switch(); got != "Sam" {
		t.Errorf("second switch = %q, want Sam", got)
	}
}

func TestSetCurrent_IsIdempotent(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if err := s.SetCurrent("Sam"); err != nil {
		t.Fatalf("SetCurrent(active): %v", err)
	}
	if got := s.Current(); got != "Sam" {
		t.Errorf("current = %q, want Sam (no-op for the active participant)", got)
	}

	if err := s.SetCurrent("Alex"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if got := s.Current(); got != "Alex" {
		t.Errorf("current = %q, want Alex", got)
	}
}

func TestSetCurrent_UnknownName_IsRejected(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if err := s.SetCurrent("Robin"); err == nil {
		t.Fatal("expected error for unknown participant, got nil")
	}
	if got := s.Current(); got != "Sam" {
		t.Errorf("current = %q, want Sam (state unchanged)", got)
	}
}

func TestRename_ActiveParticipant_UpdatesCurrentAtomically(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if err := s.Rename("Sam", "Samantha"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	a, b := s.Participants()
	cur := s.Current()
	if cur != a.Name && cur != b.Name {
		t.Fatalf("current %q matches neither stored name (%q, %q)", cur, a.Name, b.Name)
	}
	if cur != "Samantha" {
		t.Errorf("current = %q, want Samantha", cur)
	}
}

func TestRename_InactiveParticipant_LeavesCurrentAlone(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if err := s.Rename("Alex", "Alexandra"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got := s.Current(); got != "Sam" {
		t.Errorf("current = %q, want Sam", got)
	}
}

func TestRename_Collision_IsRejected(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	if err := s.Rename("Alex", "Sam"); err == nil {
		t.Fatal("expected error renaming onto an existing name, got nil")
	}
}

// ---- transcript -------------------------------------------------------------

func TestEnsureGreeting_IsIdempotent(t *testing.T) {
	s := session.New()

	if !s.EnsureGreeting() {
		t.Fatal("first EnsureGreeting on an empty transcript must append")
	}
	if s.EnsureGreeting() {
		t.Error("second EnsureGreeting must be a no-op")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("transcript length = %d, want exactly 1 greeting", got)
	}

	msg := s.Transcript()[0]
	if msg.Role != session.RoleAssistant {
		t.Errorf("greeting role = %q, want assistant", msg.Role)
	}
	if msg.Text != session.Greeting {
		t.Errorf("greeting text = %q, want the fixed greeting", msg.Text)
	}
}

func TestAppend_AssignsMonotonicOrder(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	s.EnsureGreeting()
	s.AppendUser("Sam", "the dishes are piling up")
	s.AppendAssistant("Let's talk about a chore schedule.")

	tr := s.Transcript()
	for i, m := range tr {
		if m.Order != i {
			t.Errorf("message %d has order %d, want %d", i, m.Order, i)
		}
	}
}

func TestAppendUser_SetsSpeakerLabelAndPrefix(t *testing.T) {
	s := session.New()
	_ = s.SetProfiles(session.Participant{Name: "Sam"}, session.Participant{Name: "Alex"})

	m := s.AppendUser("Sam", "the dishes are piling up")
	if m.SpeakerLabel != "Sam" {
		t.Errorf("speaker label = %q, want Sam", m.SpeakerLabel)
	}
	if !strings.HasPrefix(m.Text, "**Sam**: ") {
		t.Errorf("text = %q, want the speaker-name prefix embedded", m.Text)
	}
	if !strings.Contains(m.Text, "the dishes are piling up") {
		t.Errorf("text = %q, want the original content", m.Text)
	}
}

func TestTranscript_ReturnsCopy(t *testing.T) {
	s := session.New()
	s.EnsureGreeting()

	tr := s.Transcript()
	tr[0].Text = "mutated"

	if got := s.Transcript()[0].Text; got != session.Greeting {
		t.Errorf("internal transcript mutated through the returned slice: %q", got)
	}
}
