// Package session holds the single in-memory mediation session: the two
// named participants, the current-speaker pointer, and the append-only
// conversation transcript.
//
// A session is created once per interactive run and mutated by every
// switch-speaker action and every new message. There is no persistence;
// when the process stops, the session is gone. Session state is owned by
// one goroutine at a time; the type still guards itself with a mutex so the
// voice-result consumer can append safely.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// Role classifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Default placeholder names used before profiles are set.
const (
	DefaultNameA = "Roommate 1"
	DefaultNameB = "Roommate 2"
)

// Greeting is the fixed assistant message synthesized when the transcript
// is empty at render time.
const Greeting = "Hello, I'm your mediation assistant specializing in shared-living " +
	"relationships. I'm here to help you navigate common living arrangement " +
	"challenges and improve your home environment. Who would like to start by " +
	"sharing what issue brings you here today?"

// ErrProfilesAlreadySet is returned by SetProfiles after the one-shot
// no-profile-set → profile-set transition has fired.
var ErrProfilesAlreadySet = errors.New("session: participant profiles are already set")

// Message is one entry in the transcript. Messages are never mutated or
// removed after creation.
type Message struct {
	// Role is who authored the message.
	Role Role

	// SpeakerLabel names the participant for user messages; empty for
	// assistant messages. It is set at creation time and is authoritative;
	// it is never re-derived from the text content.
	SpeakerLabel string

	// Text is the message content. User text carries the rendered speaker
	// prefix (e.g., "**Sam**: …") so downstream formats that rely on plain
	// text history keep the attribution.
	Text string

	// Order is the monotonic creation index; assignment order equals
	// display order.
	Order int
}

// Participant is one of the two named parties in the session.
type Participant struct {
	// Name identifies the participant. Identity is the name string itself.
	Name string

	// Color is an optional display token for the rendering surface.
	Color string
}

// Session is the speaker/transcript state container.
type Session struct {
	mu sync.Mutex

	a, b        Participant
	current     string // always equals a.Name or b.Name
	profilesSet bool
	transcript  []Message
	nextOrder   int
}

// New creates a session in the no-profile-set state with placeholder
// participant names; the current speaker points at the first placeholder.
func New() *Session {
	return &Session{
		a:       Participant{Name: DefaultNameA},
		b:       Participant{Name: DefaultNameB},
		current: DefaultNameA,
	}
}

// SetProfiles fires the one-shot transition to the profile-set state. Both
// names must be non-empty and distinct. The transition is terminal for the
// session; a second call returns [ErrProfilesAlreadySet].
func (s *Session) SetProfiles(a, b Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profilesSet {
		return ErrProfilesAlreadySet
	}
	if a.Name == "" || b.Name == "" {
		return errors.New("session: participant names must be non-empty")
	}
	if a.Name == b.Name {
		return fmt.Errorf("session: participant names must differ, both are %q", a.Name)
	}

	wasFirst := s.current == s.a.Name
	s.a, s.b = a, b
	if wasFirst {
		s.current = a.Name
	} else {
		s.current = b.Name
	}
	s.profilesSet = true
	return nil
}

// ProfilesSet reports whether the one-shot profile transition has fired.
func (s *Session) ProfilesSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profilesSet
}

// Participants returns both participants in order.
func (s *Session) Participants() (Participant, Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a, s.b
}

// Current returns the current speaker's name.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Switch toggles the current speaker to the other participant and returns
// the new current speaker's name.
func (s *Session) Switch() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == s.a.Name {
		s.current = s.b.Name
	} else {
		s.current = s.a.Name
	}
	return s.current
}

// SetCurrent makes name the current speaker ("I am speaking now"). Setting
// the already-active participant is a no-op. An unknown name is an error
// and leaves the state unchanged.
func (s *Session) SetCurrent(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name != s.a.Name && name != s.b.Name {
		return fmt.Errorf("session: %q is not a participant", name)
	}
	s.current = name
	return nil
}

// Rename changes a participant's name. When the renamed participant is the
// current speaker, the current-speaker pointer is updated in the same
// critical section; there is no observable state where the pointer matches
// neither stored name.
func (s *Session) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newName == "" {
		return errors.New("session: new name must be non-empty")
	}
	switch oldName {
	case s.a.Name:
		if newName == s.b.Name {
			return fmt.Errorf("session: name %q is already taken", newName)
		}
		s.a.Name = newName
	case s.b.Name:
		if newName == s.a.Name {
			return fmt.Errorf("session: name %q is already taken", newName)
		}
		s.b.Name = newName
	default:
		return fmt.Errorf("session: %q is not a participant", oldName)
	}

	if s.current == oldName {
		s.current = newName
	}
	return nil
}

// EnsureGreeting synthesizes the fixed assistant greeting when the
// transcript is empty. It is idempotent: re-rendering an already-greeted
// session never appends a second greeting. Reports whether a message was
// appended.
func (s *Session) EnsureGreeting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.transcript) > 0 {
		return false
	}
	s.appendLocked(Message{Role: RoleAssistant, Text: Greeting})
	return true
}

// AppendUser appends a user message attributed to speaker. The stored text
// carries the rendered speaker prefix; SpeakerLabel remains the
// authoritative attribution.
func (s *Session) AppendUser(speaker, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(Message{
		Role:         RoleUser,
		SpeakerLabel: speaker,
		Text:         fmt.Sprintf("**%s**: %s", speaker, text),
	})
}

// AppendAssistant appends an assistant message.
func (s *Session) AppendAssistant(text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(Message{Role: RoleAssistant, Text: text})
}

// appendLocked assigns the next order index and appends m. Must be called
// with s.mu held.
func (s *Session) appendLocked(m Message) Message {
	m.Order = s.nextOrder
	s.nextOrder++
	s.transcript = append(s.transcript, m)
	return m
}

// Transcript returns a copy of the ordered transcript.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Len returns the number of transcript messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript)
}
