// Package deskmesh provides a high-level façade over the support desk:
// a crew of specialist agents, a session store and the adapter tying them
// together. Most applications interact with this package by:
//  1. Creating a Desk via New() with a model backend (optionally overriding
//     the default in-memory session store or the agent roster)
//  2. Calling Handle() for each customer message
//  3. Reading transcripts back via Session()
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable session store and a structured
// logger.
package deskmesh

import (
	"context"

	"github.com/deskmesh/deskmesh/adapter"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/crew"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/model"
	"github.com/deskmesh/deskmesh/session"
)

// Options configures the Desk instance.
type Options struct {
	// SessionStore defaults to an in-memory implementation if not provided.
	SessionStore core.SessionStore

	// Agents overrides the default support roster.
	Agents []*crew.Agent
	// Entry names the agent that receives every new exchange.
	Entry string
	// Escalation names the agent that takes over exhausted conversations.
	Escalation string

	// FallbackReply replaces the default apology sent when the crew fails.
	FallbackReply string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Desk is the high-level façade aggregating the crew, session store and
// adapter.
type Desk struct {
	adapter *adapter.Adapter
	crew    *crew.Crew
}

// New creates a Desk backed by the given model. Any unset service is
// initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) (*Desk, error) {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Entry:        crew.AgentTriage,
		Escalation:   crew.AgentManager,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	c, err := crew.New(llm, func(o *crew.Options) {
		if opts.Agents != nil {
			o.Agents = opts.Agents
		}
		o.Entry = opts.Entry
		o.Escalation = opts.Escalation
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	a := adapter.New(opts.SessionStore, c, func(o *adapter.Options) {
		if opts.FallbackReply != "" {
			o.FallbackReply = opts.FallbackReply
		}
		o.Logger = opts.Logger
	})

	return &Desk{adapter: a, crew: c}, nil
}

// Handle processes one customer message in the named session and returns the
// desk's reply. Crew failures never surface; the customer always gets an
// answer.
func (d *Desk) Handle(ctx context.Context, sessionKey, message string) (adapter.Reply, error) {
	return d.adapter.Handle(ctx, sessionKey, message)
}

// Session returns a read-only clone of a stored session.
func (d *Desk) Session(key string) (*core.Session, error) {
	return d.adapter.Session(key)
}

// Adapter exposes the underlying adapter, e.g. for wiring into an HTTP
// server or scenario harness.
func (d *Desk) Adapter() *adapter.Adapter {
	return d.adapter
}
