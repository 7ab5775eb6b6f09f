package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

func titleConversation() []stream.Message {
	return []stream.Message{
		{Role: stream.RoleHuman, Content: "Can you help me dispute a charge on my March invoice please?"},
		{Role: stream.RoleAI, Content: "Of course. Which charge?"},
	}
}

func TestGenerateTitle(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{{content: `"Billing dispute"`}}}

	title := GenerateTitle(context.Background(), model, "New conversation", titleConversation())
	if title != "Billing dispute" {
		t.Errorf("expected quotes stripped, got %q", title)
	}

	input := model.inputs[0]
	if len(input) != 2 {
		t.Fatalf("expected system + conversation input, got %d messages", len(input))
	}
	human := input[1].Parts[0].(llms.TextContent).Text
	if !strings.Contains(human, "Previous title: New conversation") {
		t.Errorf("expected the previous title in the prompt, got %q", human)
	}
	if !strings.Contains(human, "human: Can you help me") {
		t.Errorf("expected the conversation in the prompt, got %q", human)
	}
}

func TestGenerateTitleFallback(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{{err: errors.New("model unavailable")}}}

	title := GenerateTitle(context.Background(), model, "", titleConversation())
	if title != "Can you help me dispute a" {
		t.Errorf("expected first six words of the last human message, got %q", title)
	}

	// a blank response falls back the same way
	model = &fakeModel{turns: []fakeTurn{{content: "  "}}}
	if got := GenerateTitle(context.Background(), model, "", titleConversation()); got != title {
		t.Errorf("expected fallback for blank response, got %q", got)
	}

	// nothing to derive a title from
	if got := GenerateTitle(context.Background(), nil, "", nil); got != "" {
		t.Errorf("expected empty title for empty conversation, got %q", got)
	}
}

func TestFallbackTitleSkipsNonHuman(t *testing.T) {
	messages := []stream.Message{
		{Role: stream.RoleHuman, Content: "What time is it?"},
		{Role: stream.RoleTool, Name: "current_time", Content: `{"time":"12:00"}`},
		{Role: stream.RoleAI, Content: "It is noon."},
	}

	if got := FallbackTitle(messages); got != "What time is it?" {
		t.Errorf("expected the last human message used, got %q", got)
	}
}
