package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/model"
)

// Judge evaluates a finished conversation against a scenario's criteria and
// renders a pass/fail verdict with feedback.
type Judge struct {
	llm model.Model
}

// NewJudge builds a judge on the given model.
func NewJudge(llm model.Model) *Judge {
	return &Judge{llm: llm}
}

// Verdict is the judge's structured opinion of a conversation.
type Verdict struct {
	Passed   bool
	Feedback string
	Criteria []CriterionResult
}

// judgeReply mirrors the JSON shape requested from the model.
type judgeReply struct {
	Verdict  string `json:"verdict"`
	Feedback string `json:"feedback"`
	Criteria []struct {
		Criterion string `json:"criterion"`
		Passed    bool   `json:"passed"`
		Note      string `json:"note"`
	} `json:"criteria"`
}

// Evaluate scores the conversation. Model output is requested as JSON; if the
// model wraps or mangles it, the first balanced JSON object found is parsed,
// and as a last resort a plain pass/fail token in the text decides the
// verdict.
func (j *Judge) Evaluate(ctx context.Context, sc Scenario, conversation []core.Turn) (Verdict, error) {
	req := model.Request{
		Instructions: j.instructions(sc),
		Messages:     []model.Message{model.UserMessage(formatConversation(conversation))},
	}
	resp, err := j.llm.Generate(ctx, req)
	if err != nil {
		return Verdict{}, fmt.Errorf("judge generate: %w", err)
	}
	return parseVerdict(resp.Text)
}

func (j *Judge) instructions(sc Scenario) string {
	var b strings.Builder
	b.WriteString("You are an expert customer service quality evaluator. ")
	b.WriteString("Judge the following support conversation against each criterion.\n\nScenario under test:\n")
	b.WriteString(strings.TrimSpace(sc.Description))
	b.WriteString("\n\nCriteria:\n")
	for _, c := range sc.Criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nAnswer with ONLY a JSON object shaped like:\n")
	b.WriteString(`{"verdict":"pass","feedback":"...","criteria":[{"criterion":"...","passed":true,"note":"..."}]}`)
	b.WriteString("\nThe verdict is \"pass\" only if every criterion is met.\n")
	return b.String()
}

// formatConversation renders turns as a labeled transcript for the judge.
func formatConversation(conversation []core.Turn) string {
	var b strings.Builder
	for _, t := range conversation {
		if t.IsUser() {
			fmt.Fprintf(&b, "CUSTOMER: %s\n\n", t.Text)
		} else {
			fmt.Fprintf(&b, "AGENT (%s): %s\n\n", t.Speaker, t.Text)
		}
	}
	return b.String()
}

func parseVerdict(text string) (Verdict, error) {
	var reply judgeReply
	if raw, ok := extractJSON(text); ok {
		if err := json.Unmarshal([]byte(raw), &reply); err == nil && reply.Verdict != "" {
			v := Verdict{
				Passed:   strings.EqualFold(reply.Verdict, "pass"),
				Feedback: reply.Feedback,
			}
			for _, c := range reply.Criteria {
				v.Criteria = append(v.Criteria, CriterionResult{Criterion: c.Criterion, Passed: c.Passed, Note: c.Note})
			}
			return v, nil
		}
	}

	// Heuristic fallback for judges that ignore the JSON instruction.
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "pass") && !strings.Contains(lower, "fail"):
		return Verdict{Passed: true, Feedback: strings.TrimSpace(text)}, nil
	case strings.Contains(lower, "fail"):
		return Verdict{Passed: false, Feedback: strings.TrimSpace(text)}, nil
	}
	return Verdict{}, fmt.Errorf("unparseable judge output: %q", text)
}

// extractJSON returns the first balanced top-level JSON object in text.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
