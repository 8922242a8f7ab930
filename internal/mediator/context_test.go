package mediator_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/openmediator/commonground/internal/mediator"
	"github.com/openmediator/commonground/internal/session"
)

func TestBuildContext_EmptyTranscript(t *testing.T) {
	req := mediator.BuildContext(nil, "Alex")

	if len(req.Messages) != 2 {
		t.Fatalf("message count = %d, want 2 (instruction + speaker note)", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != mediator.SystemInstruction {
		t.Errorf("first message must be the fixed system instruction, got role %q", req.Messages[0].Role)
	}
	last := req.Messages[1]
	if last.Role != "system" {
		t.Errorf("trailing note role = %q, want system", last.Role)
	}
	want := "The current speaker is Alex. Address your response to them specifically."
	if last.Content != want {
		t.Errorf("trailing note = %q, want %q", last.Content, want)
	}
	if req.CurrentSpeaker != "Alex" {
		t.Errorf("current speaker = %q, want Alex", req.CurrentSpeaker)
	}
}

func TestBuildContext_PreservesOrderAndRoles(t *testing.T) {
	transcript := []session.Message{
		{Role: session.RoleAssistant, Text: session.Greeting},
		{Role: session.RoleUser, SpeakerLabel: "Sam", Text: "**Sam**: the dishes are piling up"},
		{Role: session.RoleAssistant, Text: "Let's talk about a chore schedule."},
		{Role: session.RoleUser, SpeakerLabel: "Alex", Text: "**Alex**: I do most of them already"},
	}

	req := mediator.BuildContext(transcript, "Alex")

	if len(req.Messages) != len(transcript)+2 {
		t.Fatalf("message count = %d, want %d", len(req.Messages), len(transcript)+2)
	}
	for i, m := range transcript {
		got := req.Messages[i+1]
		if got.Role != string(m.Role) {
			t.Errorf("message %d role = %q, want %q", i, got.Role, m.Role)
		}
		if got.Content != m.Text {
			t.Errorf("message %d content = %q, want %q", i, got.Content, m.Text)
		}
	}
	if !strings.Contains(req.Messages[2].Content, "**Sam**: ") {
		t.Error("user text must keep its embedded speaker prefix")
	}
}

func TestBuildContext_ExactlyOneTrailingNote(t *testing.T) {
	transcript := []session.Message{
		{Role: session.RoleUser, SpeakerLabel: "Sam", Text: "**Sam**: hi"},
	}

	req := mediator.BuildContext(transcript, "Sam")

	notes := 0
	for _, m := range req.Messages {
		if strings.HasPrefix(m.Content, "The current speaker is ") {
			notes++
		}
	}
	if notes != 1 {
		t.Errorf("trailing speaker notes = %d, want exactly 1", notes)
	}
	if !strings.HasPrefix(req.Messages[len(req.Messages)-1].Content, "The current speaker is Sam.") {
		t.Error("speaker note must be the final message")
	}
}

func TestBuildContext_IsDeterministic(t *testing.T) {
	transcript := []session.Message{
		{Role: session.RoleAssistant, Text: session.Greeting},
		{Role: session.RoleUser, SpeakerLabel: "Sam", Text: "**Sam**: hi"},
	}

	a := mediator.BuildContext(transcript, "Sam")
	b := mediator.BuildContext(transcript, "Sam")
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different payloads")
	}
}
