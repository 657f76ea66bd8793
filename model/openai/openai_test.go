package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/model"
)

func TestBuildMessagesKeepsAssistantTextWithToolCalls(t *testing.T) {
	req := model.Request{
		Instructions: "be helpful",
		Messages: []model.Message{
			model.UserMessage("check my account"),
			{
				Role:      model.RoleAssistant,
				Text:      "Let me look that up.",
				ToolCalls: []model.ToolCall{{ID: "c1", Name: "customer_data_lookup", Arguments: `{"customer_id":"CUST001"}`}},
			},
			model.ToolResultMessage("c1", "Customer: John Smith"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 4)

	require.NotNil(t, msgs[0].OfSystem)

	assistant := msgs[2].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "c1", assistant.ToolCalls[0].ID)
	assert.Equal(t, "Let me look that up.", assistant.Content.OfString.Value,
		"assistant text must survive replay alongside its tool calls")

	require.NotNil(t, msgs[3].OfTool)
}

func TestBuildMessagesAssistantWithoutToolCalls(t *testing.T) {
	msgs := buildMessages(model.Request{
		Messages: []model.Message{
			model.UserMessage("hi"),
			model.AssistantMessage("hello"),
		},
	})
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[1].OfAssistant)
}
