package scenario

// DefaultSuite returns the built-in scenarios exercising the main support
// paths: triage, billing, technical depth, escalation, and de-escalation of
// an angry customer.
func DefaultSuite() []Scenario {
	return []Scenario{
		{
			Name: "basic login troubleshooting",
			Description: "User is having trouble logging into their account. They're not particularly " +
				"tech-savvy but are cooperative and willing to follow instructions. They have " +
				"their login credentials ready and access to their email.",
			Criteria: []string{
				"Agent should ask relevant troubleshooting questions",
				"Agent should provide clear, step-by-step instructions",
				"Agent should be patient and helpful",
				"Agent should offer multiple solutions if the first doesn't work",
				"Agent should create a ticket if the issue can't be resolved immediately",
			},
			MaxTurns: 8,
		},
		{
			Name: "billing dispute resolution",
			Description: "Customer received a bill that's higher than expected. They're confused but not " +
				"angry. They have their account information and previous bills available. They " +
				"want to understand the charges and get them corrected if there's an error.",
			Criteria: []string{
				"Agent should ask for account information to investigate",
				"Agent should review the billing details with the customer",
				"Agent should explain any unusual or high charges clearly",
				"Agent should offer solutions if there was a billing error",
				"Agent should maintain a professional and empathetic tone",
				"Agent should ensure customer understands before concluding",
			},
			MaxTurns: 10,
		},
		{
			Name: "API integration support",
			Description: "Developer is trying to integrate the company's API into their application. " +
				"They're experiencing authentication issues and getting error codes they don't " +
				"understand. They're technically competent but new to this specific API.",
			Criteria: []string{
				"Agent should ask about the specific error codes or messages",
				"Agent should provide technical guidance appropriate for a developer",
				"Agent should reference documentation or examples when helpful",
				"Agent should offer to escalate to technical specialists if needed",
				"Agent should ensure the developer has working code before concluding",
			},
			MaxTurns: 12,
		},
		{
			Name: "urgent issue escalation",
			Description: "Customer is experiencing a critical system outage that's affecting their business. " +
				"They're stressed and need immediate help. The issue is complex and likely requires " +
				"manager intervention or specialized technical support.",
			Criteria: []string{
				"Agent should recognize the urgency of the situation",
				"Agent should gather essential information quickly",
				"Agent should escalate to appropriate specialist or manager",
				"Agent should provide immediate workarounds if possible",
				"Agent should set clear expectations for follow-up",
				"Agent should maintain calm and professional demeanor despite customer stress",
			},
			MaxTurns: 8,
		},
		{
			Name: "extremely angry customer de-escalation",
			Description: "Customer is extremely angry and frustrated. They've been trying to resolve " +
				"an issue for weeks, feel ignored, and are threatening to cancel and leave " +
				"negative reviews. They're using strong language and are very emotional. " +
				"They need immediate attention and empathy.",
			Criteria: []string{
				"Agent should remain calm and professional despite customer anger",
				"Agent should acknowledge the customer's frustration and apologize",
				"Agent should not take the anger personally or become defensive",
				"Agent should focus on understanding and solving the underlying issue",
				"Agent should escalate to manager if appropriate",
				"Agent should work to de-escalate the emotional situation",
				"Agent should provide concrete next steps and timeline",
			},
			MaxTurns: 12,
		},
	}
}
