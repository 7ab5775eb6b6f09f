package stream

import "github.com/google/uuid"

// Message roles
const (
	RoleHuman = "human"
	RoleAI    = "ai"
	RoleTool  = "tool"
	RoleError = "error"
)

// StatusSuccess marks a tool message whose call completed.
const StatusSuccess = "success"

// Message is one reconstructed conversation message.
type Message struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"` // ai only
	Name      string     `json:"name,omitempty"`      // tool only
	Status    string     `json:"status,omitempty"`    // tool only
}

// newMessageID generates ids for messages that arrive without one.
var newMessageID = uuid.NewString

// State is the accumulator: the reconstructed message list plus the open
// accumulation window (the assistant message currently being streamed).
// Apply returns a new State and never mutates the receiver or a previously
// returned Messages slice, so snapshots handed to consumers stay stable.
// The zero value is an empty conversation.
type State struct {
	// CurrentID identifies the open assistant message; empty when no
	// window is open.
	CurrentID string
	// Content is the full text accumulated into the open window.
	Content string
	// Messages is the conversation so far.
	Messages []Message
	// Dropped counts chunks discarded because the message they correlate
	// to could not be found.
	Dropped int
}

// Apply advances the state by one chunk. Chunks of unknown type leave the
// state unchanged.
func (s State) Apply(c Chunk) State {
	switch c.Type {
	case ChunkTypeToken:
		return s.applyToken(c)
	case ChunkTypeToolCall:
		return s.applyToolCall(c)
	case ChunkTypeToolResult:
		return s.applyToolResult(c)
	case ChunkTypeDone:
		return s.closeWindow()
	case ChunkTypeError:
		return s.applyError(c)
	}
	return s
}

// applyToken appends the token's content to the window. The first token
// since the last reset opens a new assistant message, keyed by the chunk's
// message id or a generated one; later tokens rewrite that message's content
// in place. A token whose open message has vanished is counted and dropped,
// with no rollback of the window content.
func (s State) applyToken(c Chunk) State {
	next := s
	next.Content += c.Content

	if next.CurrentID == "" {
		id := c.MessageID
		if id == "" {
			id = newMessageID()
		}
		next.CurrentID = id
		next.Messages = append(copyMessages(s.Messages), Message{
			ID:      id,
			Role:    RoleAI,
			Content: next.Content,
		})
		return next
	}

	i := aiIndex(next.Messages, next.CurrentID)
	if i < 0 {
		next.Dropped++
		return next
	}

	msgs := copyMessages(next.Messages)
	msgs[i].Content = next.Content
	next.Messages = msgs
	return next
}

// applyToolCall attaches the call to the open assistant message. Calls
// arriving before any token, or repeating an already-attached id, are
// ignored.
func (s State) applyToolCall(c Chunk) State {
	if s.CurrentID == "" || c.ToolCall == nil {
		return s
	}

	i := aiIndex(s.Messages, s.CurrentID)
	if i < 0 {
		next := s
		next.Dropped++
		return next
	}

	for _, tc := range s.Messages[i].ToolCalls {
		if tc.ID == c.ToolCall.ID {
			return s
		}
	}

	next := s
	msgs := copyMessages(s.Messages)
	calls := make([]ToolCall, 0, len(msgs[i].ToolCalls)+1)
	calls = append(calls, msgs[i].ToolCalls...)
	msgs[i].ToolCalls = append(calls, *c.ToolCall)
	next.Messages = msgs
	return next
}

// applyToolResult appends a completed tool message and closes the window, so
// the assistant's follow-up text becomes a separate message.
func (s State) applyToolResult(c Chunk) State {
	if c.ToolResult == nil {
		return s
	}

	id := c.MessageID
	if id == "" {
		id = newMessageID()
	}

	next := s
	next.Messages = append(copyMessages(s.Messages), Message{
		ID:      id,
		Role:    RoleTool,
		Content: c.ToolResult.Content,
		Name:    c.ToolResult.Name,
		Status:  StatusSuccess,
	})
	next.CurrentID = ""
	next.Content = ""
	return next
}

// applyError appends a visible error message and closes the window.
func (s State) applyError(c Chunk) State {
	text := c.Error
	if text == "" {
		text = "An error occurred"
	}

	next := s
	next.Messages = append(copyMessages(s.Messages), Message{
		ID:      newMessageID(),
		Role:    RoleError,
		Content: "⚠️ " + text,
	})
	next.CurrentID = ""
	next.Content = ""
	return next
}

// closeWindow resets the accumulation window, leaving messages intact.
func (s State) closeWindow() State {
	next := s
	next.CurrentID = ""
	next.Content = ""
	return next
}

func copyMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// aiIndex locates the assistant message with the given id.
func aiIndex(msgs []Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id && msgs[i].Role == RoleAI {
			return i
		}
	}
	return -1
}
