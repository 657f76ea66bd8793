package model

import (
	"context"
	"errors"
	"testing"
)

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("I want a refund", "Your refund has been processed.")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []Message{UserMessage("I want a refund")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Your refund has been processed." {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
}

func TestMockModel_CannedResponseInsideLargerMessage(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("I can't log into my account", "Let's get you back in.")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []Message{UserMessage("Customer ID CUST001: I can't log into my account")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Let's get you back in." {
		t.Errorf("registered reply should match by substring, got %q", resp.Text)
	}
}

func TestMockModel_ScriptBeforeCanned(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("hi", "canned")
	m.Enqueue(Response{ToolCalls: []ToolCall{{ID: "c1", Name: "create_ticket", Arguments: `{}`}}})
	m.Enqueue(Response{Text: "scripted final"})

	first, err := m.Generate(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.ToolCalls) != 1 || first.ToolCalls[0].Name != "create_ticket" {
		t.Fatalf("expected scripted tool call, got %+v", first)
	}

	second, err := m.Generate(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err != nil {
		t.Fatal(err)
	}
	if second.Text != "scripted final" {
		t.Errorf("expected scripted text, got %q", second.Text)
	}

	third, err := m.Generate(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if err != nil {
		t.Fatal(err)
	}
	if third.Text != "canned" {
		t.Errorf("expected canned fallback after script drained, got %q", third.Text)
	}
}

func TestMockModel_Fail(t *testing.T) {
	m := NewMockModel("test", "mock")
	boom := errors.New("boom")
	m.Fail(boom)

	_, err := m.Generate(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestMockModel_RecordsRequests(t *testing.T) {
	m := NewMockModel("test", "mock")
	_, _ = m.Generate(context.Background(), Request{Instructions: "be nice"})

	reqs := m.Requests()
	if len(reqs) != 1 || reqs[0].Instructions != "be nice" {
		t.Errorf("requests not recorded: %+v", reqs)
	}
}
