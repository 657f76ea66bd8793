// Package crew implements the customer-support crew: the specialized agent
// roles (triage, technical, billing, manager), the support tools they may
// call, and the model-driven runner that turns a conversation transcript into
// a reply.
//
// The crew is the Runner collaborator behind the adapter package: it holds no
// per-conversation state and every RunTurn call is independent, so a single
// Crew safely serves many sessions concurrently. Routing happens through a
// transfer tool the model calls when another specialist is better suited;
// iteration caps escalate stuck conversations to the manager.
package crew
