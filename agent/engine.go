package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// Request describes one chat turn: the thread it belongs to, the user's
// text, and the prior conversation the model should condition on.
type Request struct {
	ThreadID string
	Message  string
	History  []stream.Message
}

// Config holds the engine knobs sourced from the environment.
type Config struct {
	SystemPrompt       string
	HistoryTokenBudget int
	MaxToolIterations  int
}

// Engine runs the agent loop: streamed model turns, tool execution gated on
// approval, and tool results fed back to the model until it answers without
// requesting tools. Output is delivered as a stream of events.
type Engine struct {
	llm       llms.Model
	executor  *Executor
	approvals *ApprovalStore
	counter   TokenCounter
	prompt    string
	budget    int
	maxIter   int
}

// NewEngine returns an Engine. approvals may be nil to run every tool call
// without gating.
func NewEngine(llm llms.Model, executor *Executor, approvals *ApprovalStore, config Config) *Engine {
	if config.SystemPrompt == "" {
		config.SystemPrompt = SystemPrompt()
	}
	if config.HistoryTokenBudget <= 0 {
		config.HistoryTokenBudget = 6000
	}
	if config.MaxToolIterations <= 0 {
		config.MaxToolIterations = 8
	}

	return &Engine{
		llm:       llm,
		executor:  executor,
		approvals: approvals,
		counter:   NewTokenCounter(),
		prompt:    config.SystemPrompt,
		budget:    config.HistoryTokenBudget,
		maxIter:   config.MaxToolIterations,
	}
}

// Stream runs the request and returns its event sequence. The channel is
// closed when the run completes; a terminal failure is delivered in-band on
// the final event's Err field. The run stops early when ctx is canceled.
func (e *Engine) Stream(ctx context.Context, req *Request) <-chan stream.Event {
	events := make(chan stream.Event, 100)

	go func() {
		defer close(events)
		if err := e.run(ctx, req, events); err != nil {
			e.send(ctx, events, stream.Event{Err: err})
		}
	}()

	return events
}

// send delivers an event unless the consumer is gone.
func (e *Engine) send(ctx context.Context, events chan<- stream.Event, ev stream.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) run(ctx context.Context, req *Request, events chan<- stream.Event) error {
	if e.llm == nil {
		return errors.New("no model is configured")
	}

	history := buildHistory(e.prompt, req.History, req.Message)
	history = TrimHistory(history, e.budget, e.counter)

	tools := Tools()

	for i := 0; i < e.maxIter; i++ {
		msgID := uuid.NewString()

		streamFunc := func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			if !e.send(ctx, events, stream.Event{
				Mode: stream.ModeMessages,
				Message: &stream.EngineMessage{
					Kind:    stream.KindAIMessageChunk,
					ID:      msgID,
					Content: string(chunk),
				},
			}) {
				return ctx.Err()
			}
			return nil
		}

		resp, err := e.llm.GenerateContent(ctx, history,
			llms.WithTools(tools),
			llms.WithStreamingFunc(streamFunc),
		)
		if err != nil {
			return fmt.Errorf("model request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("model returned no choices")
		}
		choice := resp.Choices[0]

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		history = append(history, assistant)

		if len(choice.ToolCalls) == 0 {
			return nil
		}

		calls := streamToolCalls(choice.ToolCalls)
		if !e.send(ctx, events, stream.Event{
			Mode: stream.ModeMessages,
			Message: &stream.EngineMessage{
				Kind:      stream.KindAIMessageChunk,
				ID:        msgID,
				ToolCalls: calls,
			},
		}) {
			return ctx.Err()
		}

		for _, call := range calls {
			content := e.invoke(ctx, req.ThreadID, call)

			if !e.send(ctx, events, stream.Event{
				Mode: stream.ModeMessages,
				Message: &stream.EngineMessage{
					Kind:   stream.KindToolMessage,
					ID:     uuid.NewString(),
					Name:   call.Name,
					Result: content,
				},
			}) {
				return ctx.Err()
			}

			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{ToolCallID: call.ID, Name: call.Name, Content: content},
				},
			})
		}
	}

	return fmt.Errorf("gave up after %d tool iterations", e.maxIter)
}

// invoke gates the call on approval and executes it. Failures are reported
// to the model as error results rather than ending the run.
func (e *Engine) invoke(ctx context.Context, threadID string, call stream.ToolCall) string {
	approved, err := e.approvals.Await(ctx, threadID, call)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, "approval failed: "+err.Error())
	}
	if !approved {
		return fmt.Sprintf(`{"error": %q}`, fmt.Sprintf("tool call %s was not approved", call.Name))
	}

	content, err := e.executor.Execute(ctx, call.Name, call.Args)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return content
}

// buildHistory assembles the model input: system prompt, prior conversation,
// then the new user message. Tool messages follow the assistant turn that
// requested them, so replayed responses take their call ids from that turn's
// calls, in order; backends reject responses whose ids match no call.
func buildHistory(prompt string, prior []stream.Message, message string) []llms.MessageContent {
	history := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
	}

	var pendingCalls []string
	for _, m := range prior {
		switch m.Role {
		case stream.RoleHuman:
			history = append(history, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case stream.RoleAI:
			msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				msg.Parts = append(msg.Parts, llms.TextPart(m.Content))
			}
			pendingCalls = pendingCalls[:0]
			for _, call := range m.ToolCalls {
				msg.Parts = append(msg.Parts, llmToolCall(call))
				pendingCalls = append(pendingCalls, call.ID)
			}
			if len(msg.Parts) > 0 {
				history = append(history, msg)
			}
		case stream.RoleTool:
			callID := m.ID
			if len(pendingCalls) > 0 {
				callID = pendingCalls[0]
				pendingCalls = pendingCalls[1:]
			}
			name := m.Name
			if name == "" {
				name = "unknown"
			}
			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{ToolCallID: callID, Name: name, Content: m.Content},
				},
			})
		}
	}

	return append(history, llms.TextParts(llms.ChatMessageTypeHuman, message))
}

// streamToolCalls converts the model's tool calls to their wire form,
// decoding argument JSON and assigning ids where the model omitted them.
func streamToolCalls(toolCalls []llms.ToolCall) []stream.ToolCall {
	calls := make([]stream.ToolCall, 0, len(toolCalls))
	for _, tc := range toolCalls {
		call := stream.ToolCall{ID: tc.ID, Kind: stream.ChunkTypeToolCall, Args: map[string]any{}}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		if tc.FunctionCall != nil {
			call.Name = tc.FunctionCall.Name
			if tc.FunctionCall.Arguments != "" {
				// keep going on malformed arguments; the executor reports
				// missing ones to the model
				_ = json.Unmarshal([]byte(tc.FunctionCall.Arguments), &call.Args)
			}
		}
		calls = append(calls, call)
	}
	return calls
}

// llmToolCall converts a wire tool call back to the model's form for
// replayed history.
func llmToolCall(call stream.ToolCall) llms.ToolCall {
	args := "{}"
	if data, err := json.Marshal(call.Args); err == nil {
		args = string(data)
	}
	return llms.ToolCall{
		ID:   call.ID,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      call.Name,
			Arguments: args,
		},
	}
}
