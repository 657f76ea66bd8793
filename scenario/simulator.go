package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/model"
)

// StopToken is the marker the simulator emits when the simulated customer
// considers the conversation finished.
const StopToken = "[DONE]"

// UserSimulator role-plays the customer described by a scenario. From the
// simulator's perspective the roles flip: support replies are its user input
// and its completions are the customer's next messages.
type UserSimulator struct {
	llm model.Model
}

// NewUserSimulator builds a simulator on the given model.
func NewUserSimulator(llm model.Model) *UserSimulator {
	return &UserSimulator{llm: llm}
}

// NextMessage produces the customer's next message given the conversation so
// far. It returns StopToken (possibly with surrounding text) when the
// customer is satisfied; callers should check Done.
func (s *UserSimulator) NextMessage(ctx context.Context, sc Scenario, conversation []core.Turn) (string, error) {
	req := model.Request{
		Instructions: s.instructions(sc),
		Messages:     flipRoles(conversation),
	}
	resp, err := s.llm.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("simulator generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("simulator produced an empty message")
	}
	return text, nil
}

// Done reports whether a simulator message marks the end of the conversation.
func Done(message string) bool { return strings.Contains(message, StopToken) }

func (s *UserSimulator) instructions(sc Scenario) string {
	var b strings.Builder
	b.WriteString("You are role-playing a customer contacting a company's support desk. Stay in character.\n\n")
	b.WriteString("Situation:\n")
	b.WriteString(strings.TrimSpace(sc.Description))
	b.WriteString("\n\nWrite only the customer's next message, nothing else. Keep messages short and natural. ")
	fmt.Fprintf(&b, "When your issue is fully resolved (or you give up), reply with exactly %s.\n", StopToken)
	return b.String()
}

// flipRoles converts desk turns into the simulator's point of view: support
// replies become user input, prior customer messages become its own
// assistant output.
func flipRoles(conversation []core.Turn) []model.Message {
	msgs := make([]model.Message, 0, len(conversation))
	for _, t := range conversation {
		if t.IsUser() {
			msgs = append(msgs, model.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, model.UserMessage(t.Text))
		}
	}
	return msgs
}
