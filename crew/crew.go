package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/model"
)

// TransferToolName is the function the model calls to hand the conversation
// to another specialist. The crew intercepts it; the tool never executes.
const TransferToolName = "transfer_to_specialist"

// DefaultMaxModelCalls caps model calls per RunTurn across all agents and
// transfers. Per-agent iteration budgets bound each specialist, but transfers
// reset them; this is the hard ceiling that keeps a transfer ping-pong from
// looping forever.
const DefaultMaxModelCalls = 25

// Options configures a Crew instance.
type Options struct {
	// Agents overrides the default support roster.
	Agents []*Agent
	// Entry names the agent that receives every new exchange.
	Entry string
	// Escalation names the agent that takes over exhausted conversations.
	Escalation string
	// MaxModelCalls limits total model calls per RunTurn (0 = unlimited).
	MaxModelCalls int
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Crew coordinates the support agents for one exchange: it formats the
// transcript for the current agent, executes the tool calls the model
// requests, follows transfers between specialists and escalates to the
// manager when an agent exhausts its iteration budget. Crew is stateless
// across calls and safe for concurrent use.
type Crew struct {
	llm           model.Model
	agents        map[string]*Agent
	roster        []string
	entry         string
	escalation    string
	maxModelCalls int
	logger        logging.Logger
}

// New creates a Crew with the default support roster.
func New(llm model.Model, optFns ...func(o *Options)) (*Crew, error) {
	opts := Options{
		Agents:        DefaultAgents(SupportTools()),
		Entry:         AgentTriage,
		Escalation:    AgentManager,
		MaxModelCalls: DefaultMaxModelCalls,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	agents := make(map[string]*Agent, len(opts.Agents))
	roster := make([]string, 0, len(opts.Agents))
	for _, a := range opts.Agents {
		if a.Name == "" {
			return nil, fmt.Errorf("agent with empty name")
		}
		if _, exists := agents[a.Name]; exists {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name)
		}
		agents[a.Name] = a
		roster = append(roster, a.Name)
	}
	if _, ok := agents[opts.Entry]; !ok {
		return nil, fmt.Errorf("entry agent %q not in roster", opts.Entry)
	}
	if _, ok := agents[opts.Escalation]; !ok {
		return nil, fmt.Errorf("escalation agent %q not in roster", opts.Escalation)
	}

	return &Crew{
		llm:           llm,
		agents:        agents,
		roster:        roster,
		entry:         opts.Entry,
		escalation:    opts.Escalation,
		maxModelCalls: opts.MaxModelCalls,
		logger:        opts.Logger,
	}, nil
}

// Roster returns the agent names in registration order.
func (c *Crew) Roster() []string {
	out := make([]string, len(c.roster))
	copy(out, c.roster)
	return out
}

// RunTurn produces the next reply for a conversation. It starts at the entry
// agent, follows transfers and tool calls, and returns the final text along
// with the name of the agent that produced it. The transcript is read-only
// input; RunTurn never touches session storage. Total model calls per run are
// bounded by MaxModelCalls; exhausting the bound returns an error so the
// caller's fallback reply applies.
func (c *Crew) RunTurn(ctx context.Context, transcript []core.Turn, customerID string) (string, string, error) {
	msgs := messagesFromTranscript(transcript)
	current := c.agents[c.entry]
	escalated := false
	iterations := 0
	limiter := core.NewModelLimiter(c.maxModelCalls)

	for {
		req := model.Request{
			Instructions: current.SystemPrompt(customerID, c.transferTargets(current), escalated),
			Messages:     msgs,
			Tools:        c.definitions(current),
		}

		if err := limiter.Increment(); err != nil {
			return "", "", fmt.Errorf("agent %s: %w", current.Name, err)
		}
		resp, err := c.llm.Generate(ctx, req)
		if err != nil {
			return "", "", fmt.Errorf("generate (%s): %w", current.Name, err)
		}

		if len(resp.ToolCalls) == 0 {
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				return "", "", fmt.Errorf("agent %s returned an empty reply", current.Name)
			}
			return text, current.Name, nil
		}

		msgs = append(msgs, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			if tc.Name == TransferToolName {
				next, note := c.resolveTransfer(current, tc)
				msgs = append(msgs, model.ToolResultMessage(tc.ID, note))
				if next != nil {
					c.logger.Debug("crew.transfer", "from", current.Name, "to", next.Name)
					current = next
					iterations = 0
				}
				continue
			}
			msgs = append(msgs, model.ToolResultMessage(tc.ID, c.executeTool(ctx, current, tc)))
		}

		iterations++
		if iterations < current.MaxIterations {
			continue
		}
		if current.Name == c.escalation {
			return "", "", fmt.Errorf("agent %s exhausted its iteration budget", current.Name)
		}
		c.logger.Warn("crew.escalate", "from", current.Name, "to", c.escalation, "iterations", iterations)
		current = c.agents[c.escalation]
		escalated = true
		iterations = 0
	}
}

// resolveTransfer validates a transfer request and returns the target agent
// (nil if the transfer is rejected) plus the tool result note fed back to the
// model.
func (c *Crew) resolveTransfer(current *Agent, tc model.ToolCall) (*Agent, string) {
	if !current.AllowTransfer {
		return nil, fmt.Sprintf("%s may not transfer conversations", current.Name)
	}

	var args struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil || args.Agent == "" {
		return nil, "transfer request missing target agent"
	}
	next, ok := c.agents[args.Agent]
	if !ok {
		return nil, fmt.Sprintf("no such specialist: %s", args.Agent)
	}
	if next.Name == current.Name {
		return nil, "conversation is already with " + current.Name
	}
	return next, "conversation transferred to " + next.Name
}

// executeTool runs one requested tool call and renders its outcome as the
// tool result string. Tool failures are reported to the model rather than
// escaping as Go errors; the model decides how to proceed.
func (c *Crew) executeTool(ctx context.Context, agent *Agent, tc model.ToolCall) string {
	t, ok := agent.Tools.Get(tc.Name)
	if !ok {
		return fmt.Sprintf("unknown tool: %s", tc.Name)
	}

	args := map[string]any{}
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return fmt.Sprintf("invalid arguments for %s: %v", tc.Name, err)
		}
	}

	result, err := t.Call(ctx, args)
	if err != nil {
		c.logger.Warn("crew.tool.error", "tool", tc.Name, "error", err.Error())
		return fmt.Sprintf("tool %s failed: %v", tc.Name, err)
	}
	c.logger.Debug("crew.tool.ok", "tool", tc.Name)

	switch v := result.(type) {
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// definitions exposes the agent's tools plus the transfer pseudo-tool.
func (c *Crew) definitions(agent *Agent) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, agent.Tools.Len()+1)
	for _, t := range agent.Tools.All() {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	if agent.AllowTransfer {
		defs = append(defs, model.ToolDefinition{
			Name:        TransferToolName,
			Description: "Hand the conversation to another support specialist better suited to the customer's need.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent": map[string]any{
						"type":        "string",
						"description": "Target specialist: " + strings.Join(c.transferTargets(agent), ", "),
					},
				},
				"required": []string{"agent"},
			},
		})
	}
	return defs
}

// transferTargets lists every agent except the current one.
func (c *Crew) transferTargets(current *Agent) []string {
	targets := make([]string, 0, len(c.roster)-1)
	for _, name := range c.roster {
		if name != current.Name {
			targets = append(targets, name)
		}
	}
	return targets
}

// messagesFromTranscript maps session turns onto model conversation roles:
// customer turns become user messages, any agent turn becomes an assistant
// message.
func messagesFromTranscript(transcript []core.Turn) []model.Message {
	msgs := make([]model.Message, 0, len(transcript))
	for _, t := range transcript {
		if t.IsUser() {
			msgs = append(msgs, model.UserMessage(t.Text))
		} else {
			msgs = append(msgs, model.AssistantMessage(t.Text))
		}
	}
	return msgs
}
