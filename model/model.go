// Package model defines the provider-neutral interface the crew uses to drive
// language model generation, plus a MockModel for tests and offline demos.
// Concrete providers live in sub-packages (openai, anthropic).
package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Roles used in Message. Tool result messages reference the originating call
// via ToolCallID.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one entry of the conversation passed to the model. Assistant
// messages may carry tool calls; tool messages carry the result of one call.
type Message struct {
	Role       string     `json:"role"`
	Text       string     `json:"text,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UserMessage builds a user-role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// ToolResultMessage builds a tool-role message carrying the result of a call.
func ToolResultMessage(callID, result string) Message {
	return Message{Role: RoleTool, Text: result, ToolCallID: callID}
}

// Request captures the normalized model input produced by the crew.
type Request struct {
	Instructions string           `json:"instructions"` // system prompt
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed model output for one request. Text and ToolCalls
// may both be present; an empty ToolCalls slice means the turn is final.
type Response struct {
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and offline
// demos. Responses are served from a scripted queue first, then from canned
// prompt -> reply mappings, then from a deterministic default.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []Response
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider, SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends a scripted response served before any canned mapping.
// Scripted responses may include tool calls to exercise the tool loop.
func (m *MockModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// Fail makes every subsequent Generate call return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every request seen, in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}

	if len(m.script) > 0 {
		resp := m.script[0]
		m.script = m.script[1:]
		if resp.FinishReason == "" {
			resp.FinishReason = "stop"
		}
		return &resp, nil
	}

	var lastUser string
	for _, msg := range req.Messages {
		if msg.Role == RoleUser {
			lastUser = msg.Text
		}
	}
	text, ok := m.lookup(lastUser)
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", lastUser)
	}
	return &Response{Text: text, FinishReason: "stop"}, nil
}

// lookup resolves a canned reply for the user message: exact match first,
// then any registered prompt contained in the message, so replies still fire
// when callers wrap the prompt with extra context ("Customer ID CUST001: ...").
// Prompts are scanned in sorted order for determinism.
func (m *MockModel) lookup(userText string) (string, bool) {
	if text, ok := m.responses[userText]; ok {
		return text, true
	}
	prompts := make([]string, 0, len(m.responses))
	for prompt := range m.responses {
		prompts = append(prompts, prompt)
	}
	sort.Strings(prompts)
	for _, prompt := range prompts {
		if strings.Contains(userText, prompt) {
			return m.responses[prompt], true
		}
	}
	return "", false
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
