package mediator

import (
	"fmt"

	"github.com/openmediator/commonground/internal/session"
	"github.com/openmediator/commonground/pkg/provider/llm"
)

// SystemInstruction is the fixed persona instruction prepended to every
// backend payload. It defines the mediator's behavioural role: neutral
// shared-living conflict facilitator.
const SystemInstruction = `You are a skilled and empathetic roommate mediator with years of experience helping people navigate shared living situations.
Your role is to facilitate a constructive conversation between roommates who are seeking help with their living arrangement issues.
- Always maintain a neutral, non-judgmental stance
- Recognize and acknowledge the feelings of both roommates
- Help identify common roommate problems like chore distribution, noise levels, personal space, shared expenses, and guest policies
- Suggest practical solutions for common roommate conflicts
- Ask clarifying questions when needed
- Provide insights based on what you've heard from both roommates
- Remember details about each roommate and reference them appropriately
- Recognize who is currently speaking to you

You should address the current speaker directly while keeping in mind the context of the entire conversation.
`

// BuildContext assembles the backend payload for one mediator turn: the
// fixed system instruction, every transcript message in original order, and
// exactly one trailing system note naming the current speaker.
//
// It is a pure function and never fails: an empty transcript is valid and
// yields a payload containing only the instruction and the trailing note.
func BuildContext(transcript []session.Message, currentSpeaker string) llm.Request {
	messages := make([]llm.Message, 0, len(transcript)+2)
	messages = append(messages, llm.Message{Role: "system", Content: SystemInstruction})

	for _, m := range transcript {
		switch m.Role {
		case session.RoleUser:
			// User text already carries its speaker-name prefix.
			messages = append(messages, llm.Message{Role: "user", Content: m.Text})
		case session.RoleAssistant:
			messages = append(messages, llm.Message{Role: "assistant", Content: m.Text})
		}
	}

	messages = append(messages, llm.Message{
		Role:    "system",
		Content: fmt.Sprintf("The current speaker is %s. Address your response to them specifically.", currentSpeaker),
	})

	return llm.Request{
		Messages:       messages,
		CurrentSpeaker: currentSpeaker,
	}
}
