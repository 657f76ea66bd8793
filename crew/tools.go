package crew

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/deskmesh/deskmesh/tool"
)

// The support tools are pure string mappings with no backing store: the same
// inputs always produce the same output and nothing is persisted. They exist
// to give the model something concrete to ground replies on.

// kbCategories fixes the scan order; specific categories win over general.
var kbCategories = []string{"billing", "technical", "general"}

// kbEntries is the canned knowledge base, keyed by category then topic.
var kbEntries = map[string]map[string]string{
	"billing": {
		"refund":       "Refunds can be processed within 5-7 business days. Customer needs to provide order number and reason for refund.",
		"payment":      "Payment issues can be resolved by updating payment method in account settings or contacting billing support.",
		"subscription": "Subscription changes take effect immediately. Downgrades are prorated to the next billing cycle.",
	},
	"technical": {
		"login":       "Login issues: 1) Clear browser cache 2) Reset password 3) Check account status 4) Contact support if persists",
		"performance": "Performance issues: 1) Check internet connection 2) Update browser 3) Disable extensions 4) Try incognito mode",
		"integration": "API integration issues: 1) Check API key validity 2) Verify endpoint URLs 3) Review rate limits 4) Check documentation",
	},
	"general": {
		"hours":   "Customer support hours: Monday-Friday 9AM-6PM EST, Saturday 10AM-4PM EST",
		"contact": "Contact options: Live chat, email support@company.com, phone 1-800-SUPPORT",
		"account": "Account management: Login to dashboard to update profile, billing, and preferences",
	},
}

// customerProfile is one row of the fixed customer table.
type customerProfile struct {
	Name         string
	Tier         string
	Status       string
	LastContact  string
	OpenTickets  int
	Satisfaction float64
}

var customerTable = map[string]customerProfile{
	"CUST001": {Name: "John Smith", Tier: "Premium", Status: "Active", LastContact: "2024-01-15", OpenTickets: 0, Satisfaction: 4.5},
	"CUST002": {Name: "Sarah Johnson", Tier: "Standard", Status: "Active", LastContact: "2024-01-10", OpenTickets: 1, Satisfaction: 3.8},
}

// KnowledgeBaseSearch returns the first knowledge base entry whose category or
// topic appears in the query, or an explicit not-found marker. Categories and
// topics are scanned in a fixed order so identical queries always yield the
// identical entry.
func KnowledgeBaseSearch(query string) string {
	q := strings.ToLower(query)
	for _, category := range kbCategories {
		entries := kbEntries[category]
		topics := make([]string, 0, len(entries))
		for topic := range entries {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		for _, topic := range topics {
			if strings.Contains(q, topic) || strings.Contains(q, category) {
				return "Knowledge Base Result: " + entries[topic]
			}
		}
	}
	return "No specific knowledge base entry found. Please escalate to appropriate specialist."
}

// CustomerDataLookup formats the profile for a customer id, or a not-found
// message for unknown ids.
func CustomerDataLookup(customerID string) string {
	p, ok := customerTable[customerID]
	if !ok {
		return fmt.Sprintf("Customer %s not found in database.", customerID)
	}
	return fmt.Sprintf(
		"Customer: %s, Tier: %s, Status: %s, Last Contact: %s, Open Tickets: %d, Satisfaction: %.1f/5",
		p.Name, p.Tier, p.Status, p.LastContact, p.OpenTickets, p.Satisfaction,
	)
}

// CreateTicket returns an acknowledgement containing a ticket id derived from
// the title and description. The ticket is not persisted anywhere; the
// returned string is the whole effect.
func CreateTicket(title, description, priority string) string {
	if priority == "" {
		priority = "medium"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(title + description))
	ticketID := fmt.Sprintf("TKT-%04d", h.Sum32()%10000)
	return fmt.Sprintf("Support ticket %s created successfully. Priority: %s. Title: %s", ticketID, priority, title)
}

// NewKnowledgeBaseTool exposes KnowledgeBaseSearch to the model.
func NewKnowledgeBaseTool() tool.Tool {
	return tool.NewFunctionTool(
		"knowledge_base_search",
		"Search the knowledge base for solutions to customer problems",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Search query describing the customer's problem"},
			},
			"required": []string{"query"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			return KnowledgeBaseSearch(query), nil
		},
	)
}

// NewCustomerDataTool exposes CustomerDataLookup to the model.
func NewCustomerDataTool() tool.Tool {
	return tool.NewFunctionTool(
		"customer_data_lookup",
		"Look up customer information and interaction history",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{"type": "string", "description": "Customer identifier, e.g. CUST001"},
			},
			"required": []string{"customer_id"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			id, _ := args["customer_id"].(string)
			return CustomerDataLookup(id), nil
		},
	)
}

// NewTicketTool exposes CreateTicket to the model.
func NewTicketTool() tool.Tool {
	return tool.NewFunctionTool(
		"create_ticket",
		"Create a support ticket for tracking customer issues",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "description": "Short ticket title"},
				"description": map[string]any{"type": "string", "description": "Detailed issue description"},
				"priority":    map[string]any{"type": "string", "description": "low, medium, high or urgent"},
			},
			"required": []string{"title", "description"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			title, _ := args["title"].(string)
			description, _ := args["description"].(string)
			priority, _ := args["priority"].(string)
			return CreateTicket(title, description, priority), nil
		},
	)
}

// SupportTools builds the full registry shared by every support agent.
func SupportTools() *tool.Registry {
	return tool.MustRegistry(
		NewKnowledgeBaseTool(),
		NewCustomerDataTool(),
		NewTicketTool(),
	)
}
