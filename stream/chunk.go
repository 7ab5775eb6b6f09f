package stream

// Chunk types
const (
	ChunkTypeToken      = "token"
	ChunkTypeToolCall   = "tool_call"
	ChunkTypeToolResult = "tool_result"
	ChunkTypeDone       = "done"
	ChunkTypeError      = "error"
)

// Chunk is one unit of the wire protocol: an atomic, classified piece of
// engine output. Exactly one of the kind-specific fields is populated,
// selected by Type. MessageID ties token and tool_call chunks to the logical
// assistant message they belong to and is empty on done and error chunks.
type Chunk struct {
	Type       string      `json:"type"`
	Content    string      `json:"content,omitempty"`    // token: incremental text
	MessageID  string      `json:"messageId,omitempty"`  // stable per logical message
	ToolCall   *ToolCall   `json:"toolCall,omitempty"`   // tool_call
	ToolResult *ToolResult `json:"toolResult,omitempty"` // tool_result
	Error      string      `json:"error,omitempty"`      // error: human-readable message
}

// ToolCall is an assistant request to invoke a tool.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
	ID   string         `json:"id"`
	Kind string         `json:"kind"` // always "tool_call"
}

// ToolResult is the output of an executed tool.
type ToolResult struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
