package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
)

// DefaultMaxTurns caps customer messages when a scenario does not set its own.
const DefaultMaxTurns = 8

// Harness runs scenarios against a target, pairing a user simulator with a
// judge.
type Harness struct {
	target Target
	sim    *UserSimulator
	judge  *Judge
	logger logging.Logger
}

// HarnessOptions configure a Harness.
type HarnessOptions struct {
	// Logger receives per-turn progress. Defaults to NoOpLogger.
	Logger logging.Logger
}

// NewHarness wires a target, simulator and judge together.
func NewHarness(target Target, sim *UserSimulator, judge *Judge, optFns ...func(o *HarnessOptions)) *Harness {
	opts := HarnessOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Harness{
		target: target,
		sim:    sim,
		judge:  judge,
		logger: opts.Logger,
	}
}

// Run drives one scenario to completion and returns the judged result. Each
// run uses a fresh session key so scenarios never share state. Scripted
// messages are sent first; after the script runs out the simulator takes
// over until it signals it is done or MaxTurns is reached.
func (h *Harness) Run(ctx context.Context, sc Scenario) (Result, error) {
	maxTurns := sc.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	sessionKey := "scenario-" + core.NewID()

	var conversation []core.Turn
	for turn := 0; turn < maxTurns; turn++ {
		var message string
		if turn < len(sc.Script) {
			message = sc.Script[turn]
		} else {
			next, err := h.sim.NextMessage(ctx, sc, conversation)
			if err != nil {
				return Result{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			if Done(next) {
				break
			}
			message = next
		}

		h.logger.Debug("scenario turn", "scenario", sc.Name, "turn", turn, "message", message)
		reply, err := h.target.Exchange(ctx, sessionKey, message)
		if err != nil {
			return Result{}, fmt.Errorf("scenario %q: exchange: %w", sc.Name, err)
		}
		conversation = append(conversation,
			core.NewUserTurn(message),
			core.NewTurn("agent", reply),
		)
	}

	if len(conversation) == 0 {
		return Result{}, fmt.Errorf("scenario %q: no conversation took place", sc.Name)
	}

	verdict, err := h.judge.Evaluate(ctx, sc, conversation)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	result := Result{
		Name:     sc.Name,
		Passed:   verdict.Passed,
		Feedback: verdict.Feedback,
		Turns:    conversation,
		Criteria: verdict.Criteria,
	}
	h.logger.Info("scenario finished", "scenario", sc.Name, "passed", result.Passed, "turns", len(conversation)/2)
	return result, nil
}

// RunSuite runs every scenario in order and collects the results. A scenario
// that fails to run (as opposed to failing its criteria) is recorded as
// failed with the error as feedback, and the suite continues.
func (h *Harness) RunSuite(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := h.Run(ctx, sc)
		if err != nil {
			h.logger.Error("scenario errored", "scenario", sc.Name, "error", err)
			res = Result{
				Name:     sc.Name,
				Passed:   false,
				Feedback: "harness error: " + err.Error(),
			}
		}
		results = append(results, res)
	}
	return results
}

// Summarize renders a short human-readable report for a set of results.
func Summarize(results []Result) string {
	var b strings.Builder
	passed := 0
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
			passed++
		}
		fmt.Fprintf(&b, "[%s] %s\n", status, r.Name)
		if r.Feedback != "" {
			fmt.Fprintf(&b, "       %s\n", r.Feedback)
		}
	}
	fmt.Fprintf(&b, "%d/%d scenarios passed\n", passed, len(results))
	return b.String()
}
