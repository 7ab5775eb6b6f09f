package stream

// ModeMessages marks events carrying an incremental message payload. Events
// in any other mode are ignored by Classify.
const ModeMessages = "messages"

// Engine message kinds
const (
	KindAIMessageChunk = "AIMessageChunk"
	KindToolMessage    = "ToolMessage"
)

// Event is one emission from the agent-execution engine. Err reports a
// terminal engine failure in-band; an event with Err set carries no message
// and ends the stream.
type Event struct {
	Mode    string
	Message *EngineMessage
	Meta    map[string]any
	Err     error
}

// EngineMessage is the typed message payload of an event. The adapter that
// feeds the engine's raw output into Events is responsible for populating
// exactly one content form: Content for plain string content, Parts for
// structured content. ToolCalls carries completed tool invocations announced
// after the content. Name and Result are set on ToolMessage events only.
type EngineMessage struct {
	Kind      string
	ID        string
	Content   string
	Parts     []ContentPart
	ToolCalls []ToolCall
	Name      string
	Result    any
}

// ContentPart is one item of structured message content. At most one field
// is set; a part with neither is unrecognized and skipped.
type ContentPart struct {
	Text         string
	FunctionCall *FunctionCall
}

// FunctionCall is a tool invocation embedded in structured content. ID may
// be empty when the engine does not assign one.
type FunctionCall struct {
	Name string
	Args map[string]any
	ID   string
}
