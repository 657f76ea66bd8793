package crew

import (
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/tool"
)

// Agent names double as the speaker values recorded in session turn history.
const (
	AgentTriage    = "triage"
	AgentTechnical = "technical"
	AgentBilling   = "billing"
	AgentManager   = "manager"
)

// Agent is the declarative definition of one support specialist: identity
// text for the system prompt, the tools it may call and its iteration budget.
// Agents carry no conversation state.
type Agent struct {
	Name          string
	Role          string
	Goal          string
	Backstory     string
	Tools         *tool.Registry
	MaxIterations int
	AllowTransfer bool
}

// SystemPrompt renders the agent's instructions including the roster of
// specialists it may transfer to and the customer context when known.
func (a *Agent) SystemPrompt(customerID string, roster []string, escalated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s.\nGoal: %s\n%s\n", a.Role, a.Goal, a.Backstory)
	b.WriteString("\nYou are part of a customer service team handling a live support conversation. ")
	b.WriteString("Reply to the customer's latest message professionally, empathetically and with concrete next steps. ")
	b.WriteString("Use your tools to look up customer data and knowledge base entries before answering, and create a ticket when follow-up is needed.\n")
	if customerID != "" {
		fmt.Fprintf(&b, "\nCustomer ID for this conversation: %s\n", customerID)
	}
	if a.AllowTransfer && len(roster) > 0 {
		fmt.Fprintf(&b, "\nIf another specialist is better suited, call %s with one of: %s.\n",
			TransferToolName, strings.Join(roster, ", "))
	}
	if escalated {
		b.WriteString("\nThis conversation was escalated to you because it could not be resolved. Take ownership and bring it to a resolution.\n")
	}
	return b.String()
}

// DefaultAgents builds the standard support roster sharing a single tool
// registry. The role, goal and backstory texts define each specialist's
// behavior; everything else about routing is mechanical.
func DefaultAgents(tools *tool.Registry) []*Agent {
	return []*Agent{
		{
			Name: AgentTriage,
			Role: "Customer Service Triage Specialist",
			Goal: "Efficiently route customer inquiries to the appropriate specialist agent",
			Backstory: "You are an experienced customer service triage specialist with 5+ years " +
				"of experience in routing customer inquiries. You excel at quickly understanding customer " +
				"needs and directing them to the right department. You're known for your ability to " +
				"identify urgent issues and prioritize accordingly.",
			Tools:         tools,
			MaxIterations: 3,
			AllowTransfer: true,
		},
		{
			Name: AgentTechnical,
			Role: "Technical Support Specialist",
			Goal: "Resolve technical issues and provide clear, actionable solutions",
			Backstory: "You are a senior technical support specialist with deep expertise in " +
				"troubleshooting software and integration issues. You have a talent for explaining " +
				"complex technical concepts in simple terms and always provide step-by-step solutions. " +
				"You're patient, thorough, and committed to resolving issues completely.",
			Tools:         tools,
			MaxIterations: 5,
		},
		{
			Name: AgentBilling,
			Role: "Billing Support Specialist",
			Goal: "Handle billing inquiries, process refunds, and resolve payment issues",
			Backstory: "You are a billing support specialist with extensive experience in " +
				"financial customer service. You're detail-oriented, empathetic to customer concerns " +
				"about money, and skilled at explaining billing processes clearly. You have the " +
				"authority to process refunds and adjust accounts when appropriate.",
			Tools:         tools,
			MaxIterations: 4,
		},
		{
			Name: AgentManager,
			Role: "Customer Service Manager",
			Goal: "Handle escalated issues and ensure customer satisfaction",
			Backstory: "You are a customer service manager with 10+ years of experience in " +
				"customer relations. You handle the most complex and sensitive customer issues. " +
				"You're empowered to make exceptions, offer compensation, and ensure that every " +
				"customer leaves satisfied. You're diplomatic, solution-oriented, and focused on " +
				"long-term customer relationships.",
			Tools:         tools,
			MaxIterations: 6,
			AllowTransfer: true,
		},
	}
}
