package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// fakeModel plays back scripted turns, capturing the inputs and options it
// was called with.
type fakeModel struct {
	turns  []fakeTurn
	calls  int
	inputs [][]llms.MessageContent
	tools  [][]llms.Tool
}

type fakeTurn struct {
	stream    []string
	content   string
	toolCalls []llms.ToolCall
	err       error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	m.inputs = append(m.inputs, messages)
	m.tools = append(m.tools, opts.Tools)

	if m.calls >= len(m.turns) {
		return nil, errors.New("no scripted turn left")
	}
	turn := m.turns[m.calls]
	m.calls++

	for _, chunk := range turn.stream {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	if turn.err != nil {
		return nil, turn.err
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:   turn.content,
		ToolCalls: turn.toolCalls,
	}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func collect(events <-chan stream.Event) []stream.Event {
	var out []stream.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func calculatorCall(id string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      "calculator",
			Arguments: `{"op":"add","a":2,"b":3}`,
		},
	}
}

func TestEngineTextTurn(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{
		{stream: []string{"Hel", "lo."}, content: "Hello."},
	}}
	engine := NewEngine(model, NewExecutor(nil), nil, Config{})

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "hi"}))

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %#v", len(events), events)
	}
	for i, want := range []string{"Hel", "lo."} {
		ev := events[i]
		if ev.Err != nil || ev.Mode != stream.ModeMessages || ev.Message == nil {
			t.Fatalf("unexpected event %d: %#v", i, ev)
		}
		if ev.Message.Kind != stream.KindAIMessageChunk || ev.Message.Content != want {
			t.Errorf("event %d: expected token %q, got %#v", i, want, ev.Message)
		}
	}
	if events[0].Message.ID != events[1].Message.ID {
		t.Error("expected a stable message id across one turn")
	}

	if len(model.inputs) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(model.inputs))
	}
	input := model.inputs[0]
	if len(input) != 2 || input[0].Role != llms.ChatMessageTypeSystem || input[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("unexpected model input: %#v", input)
	}
	if len(model.tools[0]) != len(Tools()) {
		t.Errorf("expected the tool definitions passed through, got %d", len(model.tools[0]))
	}
}

func TestEngineToolLoop(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{
		{stream: []string{"Let me compute."}, content: "Let me compute.", toolCalls: []llms.ToolCall{calculatorCall("call-1")}},
		{stream: []string{"The answer is 5."}, content: "The answer is 5."},
	}}
	engine := NewEngine(model, NewExecutor(nil), nil, Config{})

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "2+3?"}))

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %#v", len(events), events)
	}

	if events[0].Message.Content != "Let me compute." {
		t.Errorf("unexpected first token event: %#v", events[0].Message)
	}

	calls := events[1].Message
	if calls.Kind != stream.KindAIMessageChunk || len(calls.ToolCalls) != 1 {
		t.Fatalf("expected tool call event, got %#v", calls)
	}
	if calls.ID != events[0].Message.ID {
		t.Error("tool calls must share the turn's message id")
	}
	if calls.ToolCalls[0].Name != "calculator" || calls.ToolCalls[0].ID != "call-1" {
		t.Errorf("unexpected tool call: %#v", calls.ToolCalls[0])
	}
	if calls.ToolCalls[0].Args["op"] != "add" {
		t.Errorf("expected decoded arguments, got %#v", calls.ToolCalls[0].Args)
	}

	result := events[2].Message
	if result.Kind != stream.KindToolMessage || result.Name != "calculator" {
		t.Fatalf("expected tool message, got %#v", result)
	}
	if result.Result != `{"result":5}` {
		t.Errorf("unexpected tool result %#v", result.Result)
	}

	final := events[3].Message
	if final.Content != "The answer is 5." || final.ID == events[0].Message.ID {
		t.Errorf("unexpected final event: %#v", final)
	}

	// the second model call must replay the assistant turn and tool result
	if len(model.inputs) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(model.inputs))
	}
	replay := model.inputs[1]
	if len(replay) != 4 {
		t.Fatalf("expected system, human, assistant, tool in replay, got %d messages", len(replay))
	}
	if replay[2].Role != llms.ChatMessageTypeAI || len(replay[2].Parts) != 2 {
		t.Errorf("unexpected replayed assistant turn: %#v", replay[2])
	}
	if replay[3].Role != llms.ChatMessageTypeTool {
		t.Errorf("unexpected replayed tool response: %#v", replay[3])
	}
	toolResp, ok := replay[3].Parts[0].(llms.ToolCallResponse)
	if !ok || toolResp.ToolCallID != "call-1" || toolResp.Content != `{"result":5}` {
		t.Errorf("unexpected tool response part: %#v", replay[3].Parts[0])
	}
}

func TestEngineModelFailure(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{
		{stream: []string{"partial"}, err: errors.New("model exploded")},
	}}
	engine := NewEngine(model, NewExecutor(nil), nil, Config{})

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "hi"}))

	if len(events) != 2 {
		t.Fatalf("expected token then failure, got %#v", events)
	}
	if events[0].Err != nil || events[0].Message.Content != "partial" {
		t.Errorf("unexpected first event: %#v", events[0])
	}
	last := events[1]
	if last.Err == nil || !strings.Contains(last.Err.Error(), "model exploded") {
		t.Errorf("expected terminal failure event, got %#v", last)
	}
	if last.Message != nil {
		t.Errorf("failure events must not carry a message, got %#v", last.Message)
	}
}

func TestEngineIterationLimit(t *testing.T) {
	toolTurn := fakeTurn{content: "", toolCalls: []llms.ToolCall{calculatorCall("call-loop")}}
	model := &fakeModel{turns: []fakeTurn{toolTurn, toolTurn}}
	engine := NewEngine(model, NewExecutor(nil), nil, Config{MaxToolIterations: 2})

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "loop"}))

	if len(events) == 0 {
		t.Fatal("expected events")
	}
	last := events[len(events)-1]
	if last.Err == nil || !strings.Contains(last.Err.Error(), "tool iterations") {
		t.Errorf("expected iteration limit failure, got %#v", last)
	}
	if model.calls != 2 {
		t.Errorf("expected exactly 2 model calls, got %d", model.calls)
	}
}

func TestEngineDeniedTool(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{
		{stream: []string{"Trying."}, content: "Trying.", toolCalls: []llms.ToolCall{calculatorCall("call-2")}},
		{stream: []string{"I could not run that."}, content: "I could not run that."},
	}}
	approvals := NewApprovalStore(ApprovalPrompt, 10*time.Millisecond)
	engine := NewEngine(model, NewExecutor(nil), approvals, Config{})

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "2+3?"}))

	var result *stream.EngineMessage
	for _, ev := range events {
		if ev.Message != nil && ev.Message.Kind == stream.KindToolMessage {
			result = ev.Message
		}
	}
	if result == nil {
		t.Fatalf("expected a tool message, got %#v", events)
	}
	content, ok := result.Result.(string)
	if !ok || !strings.Contains(content, "not approved") {
		t.Errorf("expected denial result, got %#v", result.Result)
	}
	if last := events[len(events)-1]; last.Err != nil {
		t.Errorf("a denied tool must not fail the run, got %v", last.Err)
	}
}

func TestEngineApprovedTool(t *testing.T) {
	model := &fakeModel{turns: []fakeTurn{
		{stream: []string{"Trying."}, content: "Trying.", toolCalls: []llms.ToolCall{calculatorCall("call-3")}},
		{stream: []string{"Done."}, content: "Done."},
	}}
	approvals := NewApprovalStore(ApprovalPrompt, 5*time.Second)
	engine := NewEngine(model, NewExecutor(nil), approvals, Config{})

	go func() {
		for i := 0; i < 1000; i++ {
			if approvals.Resolve("t1", "call-3", true) {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	events := collect(engine.Stream(context.Background(), &Request{ThreadID: "t1", Message: "2+3?"}))

	var result *stream.EngineMessage
	for _, ev := range events {
		if ev.Message != nil && ev.Message.Kind == stream.KindToolMessage {
			result = ev.Message
		}
	}
	if result == nil || result.Result != `{"result":5}` {
		t.Fatalf("expected approved tool result, got %#v", result)
	}
}
