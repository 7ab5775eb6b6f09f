package agent

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
)

// TokenCounter estimates the token cost of a piece of text.
type TokenCounter func(string) int

// NewTokenCounter returns a tiktoken-backed counter. If the encoding cannot
// be loaded it falls back to a bytes-per-token estimate.
func NewTokenCounter() TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Println("Could not load token encoding, falling back to estimate:", err)
		return estimateTokens
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}
}

// estimateTokens approximates a token count at four bytes per token.
func estimateTokens(s string) int {
	return len(s)/4 + 1
}

// TrimHistory drops the oldest conversation messages until the estimated
// token total fits the budget. The system prompt and the latest message are
// always kept, and tool responses are dropped together with the assistant
// turn that requested them so the replayed history stays well formed.
func TrimHistory(history []llms.MessageContent, budget int, count TokenCounter) []llms.MessageContent {
	if budget <= 0 || len(history) <= 2 {
		return history
	}

	total := 0
	for _, msg := range history {
		total += messageTokens(msg, count)
	}

	trimmed := history
	for total > budget && len(trimmed) > 2 {
		// index 0 is the system prompt; drop the message after it
		dropped := trimmed[1]
		total -= messageTokens(dropped, count)
		trimmed = append(trimmed[:1:1], trimmed[2:]...)

		if !hasToolCalls(dropped) {
			continue
		}
		for len(trimmed) > 2 && trimmed[1].Role == llms.ChatMessageTypeTool {
			total -= messageTokens(trimmed[1], count)
			trimmed = append(trimmed[:1:1], trimmed[2:]...)
		}
	}

	return trimmed
}

// messageTokens sums the token estimates of a message's parts, plus a small
// per-message overhead.
func messageTokens(msg llms.MessageContent, count TokenCounter) int {
	total := 4
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case llms.TextContent:
			total += count(p.Text)
		case llms.ToolCall:
			if p.FunctionCall != nil {
				total += count(p.FunctionCall.Name) + count(p.FunctionCall.Arguments)
			}
		case llms.ToolCallResponse:
			total += count(p.Content)
		}
	}
	return total
}

func hasToolCalls(msg llms.MessageContent) bool {
	for _, part := range msg.Parts {
		if _, ok := part.(llms.ToolCall); ok {
			return true
		}
	}
	return false
}
