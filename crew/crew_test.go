package crew

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCrew(t *testing.T, llm model.Model) *Crew {
	t.Helper()
	c, err := New(llm)
	require.NoError(t, err)
	return c
}

func TestCrew_PlainReply(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.AddResponse("I want a refund", "Your refund has been processed.")
	c := newTestCrew(t, llm)

	reply, agent, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("I want a refund")}, "")
	require.NoError(t, err)
	assert.Equal(t, "Your refund has been processed.", reply)
	assert.Equal(t, AgentTriage, agent)
}

func TestCrew_ToolCallLoop(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "c1", Name: "customer_data_lookup", Arguments: `{"customer_id":"CUST001"}`},
	}})
	llm.Enqueue(model.Response{Text: "Hi John, your account is active."})
	c := newTestCrew(t, llm)

	reply, agent, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("check my account")}, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, "Hi John, your account is active.", reply)
	assert.Equal(t, AgentTriage, agent)

	// The second request must contain the tool result so the model can use it.
	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	var sawToolResult bool
	for _, msg := range reqs[1].Messages {
		if msg.Role == model.RoleTool && msg.ToolCallID == "c1" {
			sawToolResult = true
			assert.Contains(t, msg.Text, "John Smith")
		}
	}
	assert.True(t, sawToolResult, "tool result should be fed back to the model")
}

func TestCrew_Transfer(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "c1", Name: TransferToolName, Arguments: `{"agent":"billing"}`},
	}})
	llm.Enqueue(model.Response{Text: "I have reviewed the double charge and issued a refund."})
	c := newTestCrew(t, llm)

	reply, agent, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("I was charged twice")}, "")
	require.NoError(t, err)
	assert.Equal(t, AgentBilling, agent, "reply should be attributed to the transferred-to agent")
	assert.Contains(t, reply, "refund")
}

func TestCrew_TransferToUnknownAgent(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "c1", Name: TransferToolName, Arguments: `{"agent":"legal"}`},
	}})
	llm.Enqueue(model.Response{Text: "Let me handle that myself."})
	c := newTestCrew(t, llm)

	_, agent, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("sue them")}, "")
	require.NoError(t, err)
	assert.Equal(t, AgentTriage, agent, "rejected transfer should keep the current agent")
}

func TestCrew_EscalatesOnIterationBudget(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	// Triage burns its 3 iterations on tool calls without ever answering.
	for i := 0; i < 3; i++ {
		llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
			{ID: "c1", Name: "knowledge_base_search", Arguments: `{"query":"login"}`},
		}})
	}
	llm.Enqueue(model.Response{Text: "I am taking over this case personally."})
	c := newTestCrew(t, llm)

	reply, agent, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("help")}, "")
	require.NoError(t, err)
	assert.Equal(t, AgentManager, agent)
	assert.Contains(t, reply, "taking over")
}

func TestCrew_TransferPingPongIsBounded(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	// A model that never answers and keeps bouncing the conversation between
	// the two transfer-capable agents. Per-agent iteration budgets reset on
	// every accepted transfer, so only the total call cap can end this.
	targets := []string{AgentManager, AgentTriage}
	for i := 0; i < DefaultMaxModelCalls+5; i++ {
		llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
			{ID: fmt.Sprintf("c%d", i), Name: TransferToolName, Arguments: fmt.Sprintf(`{"agent":%q}`, targets[i%2])},
		}})
	}
	c := newTestCrew(t, llm)

	_, _, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("help")}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max model calls")
	assert.Equal(t, DefaultMaxModelCalls, len(llm.Requests()))
}

func TestCrew_MaxModelCallsOption(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	for i := 0; i < 5; i++ {
		llm.Enqueue(model.Response{ToolCalls: []model.ToolCall{
			{ID: fmt.Sprintf("c%d", i), Name: "knowledge_base_search", Arguments: `{"query":"login"}`},
		}})
	}
	c, err := New(llm, func(o *Options) { o.MaxModelCalls = 2 })
	require.NoError(t, err)

	_, _, err = c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("help")}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max model calls")
	assert.Equal(t, 2, len(llm.Requests()))
}

func TestCrew_ModelFailure(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	boom := errors.New("model unavailable")
	llm.Fail(boom)
	c := newTestCrew(t, llm)

	_, _, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("help")}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestCrew_EmptyReplyIsError(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.Enqueue(model.Response{Text: "   "})
	c := newTestCrew(t, llm)

	_, _, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("help")}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty reply")
}

func TestCrew_CustomerContextInPrompt(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	c := newTestCrew(t, llm)

	_, _, err := c.RunTurn(context.Background(), []core.Turn{core.NewUserTurn("hi")}, "CUST002")
	require.NoError(t, err)

	reqs := llm.Requests()
	require.NotEmpty(t, reqs)
	assert.Contains(t, reqs[0].Instructions, "CUST002")
}

func TestNew_ValidatesRoster(t *testing.T) {
	llm := model.NewMockModel("test", "mock")

	_, err := New(llm, func(o *Options) { o.Entry = "nobody" })
	require.Error(t, err)

	agents := DefaultAgents(SupportTools())
	agents = append(agents, agents[0])
	_, err = New(llm, func(o *Options) { o.Agents = agents })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent name")
}
