package stream

import (
	"encoding/json"
	"fmt"
)

// Classify maps one engine event to zero or more wire chunks. It is a pure
// function: every event yields a well-defined (possibly empty) result, and
// unrecognized modes, kinds, and content shapes are skipped rather than
// failed. Events carrying an Err are never classified; terminal framing is
// the encoder's job.
func Classify(ev Event) []Chunk {
	if ev.Err != nil || ev.Mode != ModeMessages || ev.Message == nil {
		return nil
	}

	switch ev.Message.Kind {
	case KindAIMessageChunk:
		return classifyAssistant(ev.Message)
	case KindToolMessage:
		return []Chunk{classifyToolResult(ev.Message)}
	}
	return nil
}

// classifyAssistant emits token chunks for the message's content followed by
// tool_call chunks for any completed invocations announced with it. Content
// order is preserved; an empty message produces nothing.
func classifyAssistant(msg *EngineMessage) []Chunk {
	var chunks []Chunk

	if msg.Content != "" {
		chunks = append(chunks, Chunk{
			Type:      ChunkTypeToken,
			Content:   msg.Content,
			MessageID: msg.ID,
		})
	} else {
		for _, part := range msg.Parts {
			switch {
			case part.FunctionCall != nil:
				chunks = append(chunks, Chunk{
					Type:      ChunkTypeToolCall,
					MessageID: msg.ID,
					ToolCall: &ToolCall{
						Name: part.FunctionCall.Name,
						Args: part.FunctionCall.Args,
						ID:   part.FunctionCall.ID,
						Kind: ChunkTypeToolCall,
					},
				})
			case part.Text != "":
				chunks = append(chunks, Chunk{
					Type:      ChunkTypeToken,
					Content:   part.Text,
					MessageID: msg.ID,
				})
			}
		}
	}

	for _, tc := range msg.ToolCalls {
		call := tc
		call.Kind = ChunkTypeToolCall
		chunks = append(chunks, Chunk{
			Type:      ChunkTypeToolCall,
			MessageID: msg.ID,
			ToolCall:  &call,
		})
	}

	return chunks
}

// classifyToolResult emits exactly one tool_result chunk. The tool name
// defaults to "unknown" and non-string results are JSON-serialized so the
// wire content is always a string.
func classifyToolResult(msg *EngineMessage) Chunk {
	name := msg.Name
	if name == "" {
		name = "unknown"
	}

	content, ok := msg.Result.(string)
	if !ok {
		if data, err := json.Marshal(msg.Result); err == nil {
			content = string(data)
		} else {
			content = fmt.Sprint(msg.Result)
		}
	}

	return Chunk{
		Type:       ChunkTypeToolResult,
		MessageID:  msg.ID,
		ToolResult: &ToolResult{Name: name, Content: content},
	}
}
