package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket handles GET /threads/{id}/ws. The connection carries one turn:
// the first client frame is {"message": "..."}, the response is the same
// chunk JSON the SSE endpoint emits, one frame per chunk, with a done or
// error chunk terminal.
func (h *ChatHandler) WebSocket() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		threadID := mux.Vars(r)["id"]

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Thread(%s): websocket upgrade failed: %v\n", threadID, err)
			return
		}
		defer conn.Close()

		req := new(ChatRequest)
		if err := conn.ReadJSON(req); err != nil {
			log.Printf("Thread(%s): websocket read failed: %v\n", threadID, err)
			return
		}

		message := strings.TrimSpace(req.Message)
		if message == "" {
			conn.WriteJSON(&stream.Chunk{Type: stream.ChunkTypeError, Error: "message is empty"})
			return
		}

		if err := h.turn(r.Context(), conn, threadID, message); err != nil {
			log.Printf("Thread(%s): websocket turn failed: %v\n", threadID, err)
		}
	})
}

// turn runs one conversation turn over an established connection.
func (h *ChatHandler) turn(ctx context.Context, conn *websocket.Conn, threadID, message string) error {
	thread, history, err := h.prepare(ctx, threadID, message)
	if err != nil {
		conn.WriteJSON(&stream.Chunk{Type: stream.ChunkTypeError, Error: "could not load the conversation"})
		return err
	}
	if thread == nil {
		return conn.WriteJSON(&stream.Chunk{Type: stream.ChunkTypeError, Error: fmt.Sprintf("thread %s does not exist", threadID)})
	}
	h.Cache.Invalidate(threadID)

	events := h.Engine.Stream(ctx, &agent.Request{ThreadID: threadID, Message: message, History: history})

	acc := stream.State{}
	failed := false
	var writeErr error

	emit := func(c stream.Chunk) {
		acc = acc.Apply(c)
		if writeErr == nil {
			writeErr = conn.WriteJSON(&c)
		}
	}

	for ev := range events {
		if ev.Err != nil {
			failed = true
			emit(stream.Chunk{Type: stream.ChunkTypeError, Error: ev.Err.Error()})
			continue
		}
		for _, c := range stream.Classify(ev) {
			emit(c)
		}
	}
	if !failed {
		acc = acc.Apply(stream.Chunk{Type: stream.ChunkTypeDone})
	}

	// The done frame goes out only after the turn is persisted.
	if err := h.finish(threadID, acc); err != nil {
		log.Printf("Thread(%s): could not persist turn: %v\n", threadID, err)
	}
	h.maybeTitle(thread, conversation(history, message, acc))

	if !failed && writeErr == nil {
		writeErr = conn.WriteJSON(&stream.Chunk{Type: stream.ChunkTypeDone})
	}
	return writeErr
}
