package agent

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// titleMaxLen caps generated titles at a length that renders as one line.
const titleMaxLen = 80

// TitlePrompt returns the instruction for generating thread titles.
func TitlePrompt() string {
	return `You generate short, user-friendly titles for chat conversations.

Instructions:
- Use the previous title unless the topic has clearly changed.
- Keep titles short (3-7 words).
- Use plain language.
- Output ONLY the title, no quotes or extra text.`
}

// GenerateTitle asks the model for an updated thread title based on the
// conversation so far. On any model failure it falls back to a heuristic
// title; an empty result means no update should be made.
func GenerateTitle(ctx context.Context, model llms.Model, previousTitle string, messages []stream.Message) string {
	if model == nil {
		return FallbackTitle(messages)
	}

	resp, err := model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, TitlePrompt()),
			llms.TextParts(llms.ChatMessageTypeHuman, buildTitleInput(previousTitle, messages)),
		},
		llms.WithMaxTokens(48),
	)
	if err != nil || len(resp.Choices) == 0 {
		return FallbackTitle(messages)
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Choices[0].Content), `"`))
	if title == "" {
		return FallbackTitle(messages)
	}
	if len(title) > titleMaxLen {
		title = strings.TrimSpace(truncate(title, titleMaxLen))
	}
	return title
}

func buildTitleInput(previousTitle string, messages []stream.Message) string {
	var sb strings.Builder
	sb.WriteString("Previous title: ")
	if previousTitle == "" {
		sb.WriteString("(none)")
	} else {
		sb.WriteString(previousTitle)
	}
	sb.WriteString("\n\nConversation messages:\n")

	for _, msg := range messages {
		if msg.Content == "" || msg.Role == stream.RoleTool || msg.Role == stream.RoleError {
			continue
		}
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FallbackTitle derives a title from the latest human message: its first six
// words. It returns "" when there is nothing to derive one from.
func FallbackTitle(messages []stream.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != stream.RoleHuman {
			continue
		}
		title := strings.TrimSpace(messages[i].Content)
		if title == "" {
			continue
		}
		words := strings.Fields(title)
		if len(words) > 6 {
			words = words[:6]
		}
		return strings.Join(words, " ")
	}
	return ""
}
