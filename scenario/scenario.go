// Package scenario drives the support desk with a simulated customer and
// judges the resulting conversation. A scenario names the situation the
// simulated customer is in and the criteria a judge scores the conversation
// against; running one produces a pass/fail result with feedback.
package scenario

import (
	"context"

	"github.com/deskmesh/deskmesh/core"
)

// Scenario describes one simulated conversation to run against the desk.
type Scenario struct {
	// Name identifies the scenario in results and logs.
	Name string `json:"name"`
	// Description tells the simulator who the customer is and what they want.
	Description string `json:"description"`
	// Criteria are the statements the judge scores the conversation against.
	Criteria []string `json:"criteria"`
	// MaxTurns caps the number of customer messages (default 8).
	MaxTurns int `json:"max_turns"`
	// Script, when set, supplies the first customer messages verbatim before
	// the simulator takes over. Useful for reproducible edge cases.
	Script []string `json:"script,omitempty"`
}

// CriterionResult is the judge's score for one criterion.
type CriterionResult struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Note      string `json:"note,omitempty"`
}

// Result is the outcome of running one scenario.
type Result struct {
	Name     string            `json:"name"`
	Passed   bool              `json:"passed"`
	Feedback string            `json:"feedback"`
	Turns    []core.Turn       `json:"turns"`
	Criteria []CriterionResult `json:"criteria,omitempty"`
}

// Target is the system under test: one exchange in, one reply out. The
// adapter's Handle satisfies this via TargetFunc.
type Target interface {
	Exchange(ctx context.Context, sessionKey, message string) (string, error)
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(ctx context.Context, sessionKey, message string) (string, error)

// Exchange implements Target.
func (f TargetFunc) Exchange(ctx context.Context, sessionKey, message string) (string, error) {
	return f(ctx, sessionKey, message)
}
