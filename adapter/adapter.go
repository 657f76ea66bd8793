// Package adapter translates between the inbound exchange contract (session
// key + latest customer message) and the crew runner's transcript contract.
// It owns the only failure-handling rule of an exchange: a runner failure is
// converted into a deterministic fallback reply, never surfaced to the
// customer.
package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
)

// DefaultFallbackReply is appended and returned when the runner fails. The
// exchange contract is "always produce a reply"; this text is the reply of
// last resort.
const DefaultFallbackReply = "I apologize, but I'm having trouble processing your request right now. " +
	"Your issue has been escalated to our support team and a specialist will follow up with you shortly."

// FallbackAgent is the speaker recorded for synthetic fallback turns.
const FallbackAgent = "system"

// Runner is the opaque collaborator that produces replies. RunTurn receives
// the full turn history plus the customer identifier when known and returns
// the reply text together with the role that produced it.
type Runner interface {
	RunTurn(ctx context.Context, transcript []core.Turn, customerID string) (reply string, agent string, err error)
}

// Reply is the outcome of one exchange.
type Reply struct {
	Text  string `json:"text"`
	Agent string `json:"agent"` // producing role; FallbackAgent for fallback replies
}

// Options configures an Adapter.
type Options struct {
	// FallbackReply overrides DefaultFallbackReply.
	FallbackReply string
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Adapter glues a SessionStore to a Runner. It retains no state beyond its
// dependencies: all durable conversation state lives in the store, so a
// single Adapter serves many sessions. Callers driving multiple exchanges for
// the SAME session key concurrently must serialize them externally or turn
// ordering is not guaranteed.
type Adapter struct {
	store    core.SessionStore
	runner   Runner
	fallback string
	logger   logging.Logger
}

// New wires an adapter from its two collaborators.
func New(store core.SessionStore, runner Runner, optFns ...func(o *Options)) *Adapter {
	opts := Options{
		FallbackReply: DefaultFallbackReply,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Adapter{store: store, runner: runner, fallback: opts.FallbackReply, logger: opts.Logger}
}

// Handle processes one exchange: append the inbound turn, invoke the runner
// with the full history, append the outbound turn and return the reply.
//
// Runner failures never propagate; the customer always gets a reply. Store
// failures (including core.ErrSessionNotFound) DO propagate: they are
// contract violations, not conversation conditions.
func (a *Adapter) Handle(ctx context.Context, sessionKey, userText string) (Reply, error) {
	sess, err := a.store.GetOrCreate(sessionKey)
	if err != nil {
		return Reply{}, fmt.Errorf("get or create session %q: %w", sessionKey, err)
	}

	if err := a.store.AppendTurn(sessionKey, core.NewUserTurn(userText)); err != nil {
		return Reply{}, fmt.Errorf("append user turn: %w", err)
	}

	customerID := sess.GetCustomerID()
	if customerID == "" {
		if id := extractCustomerID(userText); id != "" {
			customerID = id
			if err := a.store.SetCustomerID(sessionKey, id); err != nil {
				return Reply{}, fmt.Errorf("record customer id: %w", err)
			}
		}
	}

	transcript := append(sess.Transcript(), core.NewUserTurn(userText))

	reply, agent, err := a.runner.RunTurn(ctx, transcript, customerID)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			a.logger.Error("adapter.runner.failed", "session", sessionKey, "error", err.Error())
		} else {
			a.logger.Error("adapter.runner.empty_reply", "session", sessionKey)
		}
		reply, agent = a.fallback, FallbackAgent
	}

	if err := a.store.AppendTurn(sessionKey, core.NewTurn(agent, reply)); err != nil {
		return Reply{}, fmt.Errorf("append reply turn: %w", err)
	}
	if err := a.store.SetLastAgent(sessionKey, agent); err != nil {
		return Reply{}, fmt.Errorf("record last agent: %w", err)
	}

	a.logger.Info("adapter.exchange", "session", sessionKey, "agent", agent)
	return Reply{Text: reply, Agent: agent}, nil
}

// Session exposes the stored session for a key (read-only clone).
func (a *Adapter) Session(key string) (*core.Session, error) {
	return a.store.Get(key)
}

// customerIDPattern matches identifiers like CUST001 mentioned in messages.
var customerIDPattern = regexp.MustCompile(`(?i)\bCUST\d{3,}\b`)

// extractCustomerID pulls a customer identifier out of free text, empty if
// none is present.
func extractCustomerID(text string) string {
	return strings.ToUpper(customerIDPattern.FindString(text))
}
