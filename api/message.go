package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

//MessageRoles are the roles a persisted Message may have.
//Transient error messages are never persisted
var MessageRoles = []string{stream.RoleHuman, stream.RoleAI, stream.RoleTool}

//Message represents one persisted conversation message.
//ToolCalls is set on ai messages that requested tool invocations,
//Name on tool messages
type Message struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"thread_id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	ToolCalls []stream.ToolCall `json:"tool_calls,omitempty"`
	Name      string            `json:"name,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

//Validate cleans and validates the given Message
func (m *Message) Validate() error {
	if err := ValidateEnum("role", m.Role, MessageRoles); err != nil {
		return err
	}
	if m.Role == stream.RoleHuman && m.Content == "" {
		return fmt.Errorf("content must not be empty for human messages")
	}
	if m.Name != "" {
		return ValidateString("name", m.Name, 255)
	}
	return nil
}

//CreateMessages appends the given Messages to the Thread in order.
//Missing ids and creation times are filled in
func CreateMessages(ctx context.Context, threadID string, messages []*Message) error {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	for _, message := range messages {
		if message.ID == "" {
			message.ID = uuid.NewString()
		}
		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now()
		}
		message.ThreadID = threadID

		if err := message.Validate(); err != nil {
			return &Error{Description: "Could not validate Message", Type: ErrorTypeUser, Err: err}
		}

		var toolCalls []byte
		if len(message.ToolCalls) > 0 {
			var err error
			if toolCalls, err = json.Marshal(message.ToolCalls); err != nil {
				return &Error{Description: "Could not marshal Message tool calls", Type: ErrorTypeServer, Err: err}
			}
		}

		_, err := tx.Exec("INSERT INTO message(id, thread_id, role, content, tool_calls, name, created_at) VALUES(?, ?, ?, ?, ?, ?, ?);",
			message.ID, message.ThreadID, message.Role, message.Content, toolCalls, message.Name, message.CreatedAt)
		if err != nil {
			return &Error{Description: "Could not insert Message", Type: ErrorTypeServer, Err: err}
		}
	}

	return nil
}

//ReadMessages returns the Thread's Messages in conversation order
func ReadMessages(ctx context.Context, threadID string) ([]*Message, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	rows, err := tx.Query("SELECT id, role, content, tool_calls, name, created_at FROM message WHERE thread_id=? ORDER BY seq;", threadID)
	if err != nil {
		return nil, &Error{Description: fmt.Sprintf("Could not query Messages for Thread(%s)", threadID), Type: ErrorTypeServer, Err: err}
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		message := &Message{ThreadID: threadID}
		var toolCalls []byte

		if err := rows.Scan(&(message.ID), &(message.Role), &(message.Content), &toolCalls, &(message.Name), &(message.CreatedAt)); err != nil {
			return nil, &Error{Description: "Could not scan Message row", Type: ErrorTypeServer, Err: err}
		}

		if len(toolCalls) > 0 {
			if err := json.Unmarshal(toolCalls, &(message.ToolCalls)); err != nil {
				return nil, &Error{Description: fmt.Sprintf("Could not unmarshal tool calls for Message(%s)", message.ID), Type: ErrorTypeServer, Err: err}
			}
		}

		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Description: "Could not read Message rows", Type: ErrorTypeServer, Err: err}
	}

	return messages, nil
}

//CountMessages returns the number of Messages in the Thread
func CountMessages(ctx context.Context, threadID string) (int, error) {
	tx := ctx.Value(TransactionKey).(*sql.Tx)

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM message WHERE thread_id=?;", threadID).Scan(&count); err != nil {
		return 0, &Error{Description: fmt.Sprintf("Could not count Messages for Thread(%s)", threadID), Type: ErrorTypeServer, Err: err}
	}

	return count, nil
}

//StreamMessages converts persisted Messages to their wire form
func StreamMessages(messages []*Message) []stream.Message {
	out := make([]stream.Message, 0, len(messages))
	for _, m := range messages {
		sm := stream.Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			ToolCalls: m.ToolCalls,
			Name:      m.Name,
		}
		if m.Role == stream.RoleTool {
			sm.Status = stream.StatusSuccess
		}
		out = append(out, sm)
	}
	return out
}

//AccumulatedMessages converts wire messages accumulated during a stream into
//Messages for persistence. Transient error messages are skipped
func AccumulatedMessages(threadID string, messages []stream.Message) []*Message {
	var out []*Message
	for _, m := range messages {
		if m.Role == stream.RoleError {
			continue
		}
		out = append(out, &Message{
			ID:        m.ID,
			ThreadID:  threadID,
			Role:      m.Role,
			Content:   m.Content,
			ToolCalls: m.ToolCalls,
			Name:      m.Name,
		})
	}
	return out
}
