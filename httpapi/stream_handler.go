package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/tmc/langchaingo/llms"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/agent"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// titleTimeout bounds background title generation.
const titleTimeout = 30 * time.Second

// Engine produces the event stream for one conversation turn.
type Engine interface {
	Stream(ctx context.Context, req *agent.Request) <-chan stream.Event
}

// ChatHandler runs conversation turns: it persists the incoming human
// message, streams the engine's response to the client, and persists
// whatever accumulated once the turn ends.
type ChatHandler struct {
	DB     *sql.DB
	Engine Engine
	LLM    llms.Model
	Cache  *api.MessageCache
}

// ServeHTTP handles POST /threads/{id}/stream with a Server-Sent Events
// response. Errors before the stream opens are plain JSON; errors after
// are reported in-band.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["id"]

	req := new(ChatRequest)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("Could not decode json: %v", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is empty"))
		return
	}

	thread, history, err := h.prepare(r.Context(), threadID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if thread == nil {
		writeError(w, http.StatusNotFound, nil)
		return
	}
	h.Cache.Invalidate(threadID)

	enc, err := stream.NewEncoder(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	events := h.Engine.Stream(r.Context(), &agent.Request{ThreadID: threadID, Message: req.Message, History: history})

	acc := stream.State{}
	if err := enc.Stream(events, threadID, func(c stream.Chunk) { acc = acc.Apply(c) }); err != nil {
		log.Printf("Thread(%s): stream ended with error: %v\n", threadID, err)
	}

	if err := h.finish(threadID, acc); err != nil {
		log.Printf("Thread(%s): could not persist turn: %v\n", threadID, err)
	}

	h.maybeTitle(thread, conversation(history, req.Message, acc))
}

// prepare stores the human message in its own transaction and returns the
// thread along with the history the engine should see. A nil thread with a
// nil error means the thread does not exist.
func (h *ChatHandler) prepare(ctx context.Context, threadID, message string) (*api.Thread, []stream.Message, error) {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	ctx = context.WithValue(ctx, api.TransactionKey, tx)

	thread, err := api.ReadThread(ctx, threadID, true)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if thread == nil {
		tx.Rollback()
		return nil, nil, nil
	}

	history := api.StreamMessages(thread.Messages)

	if err = api.CreateMessages(ctx, threadID, []*api.Message{{Role: stream.RoleHuman, Content: message}}); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	return thread, history, nil
}

// finish persists the messages that accumulated during a turn and bumps the
// thread's updated time. The request context may already be canceled when a
// client disconnects mid-stream, so this runs on a fresh one.
func (h *ChatHandler) finish(threadID string, acc stream.State) error {
	if acc.Dropped > 0 {
		log.Printf("Thread(%s): dropped %d stream chunks\n", threadID, acc.Dropped)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	ctx = context.WithValue(ctx, api.TransactionKey, tx)

	if messages := api.AccumulatedMessages(threadID, acc.Messages); len(messages) > 0 {
		if err := api.CreateMessages(ctx, threadID, messages); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := api.TouchThread(ctx, threadID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	h.Cache.Invalidate(threadID)
	return nil
}

// maybeTitle regenerates the thread title in the background once a thread
// with the default title has its first exchange.
func (h *ChatHandler) maybeTitle(thread *api.Thread, messages []stream.Message) {
	if h.LLM == nil || thread.Title != api.DefaultThreadTitle {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		title := agent.GenerateTitle(ctx, h.LLM, thread.Title, messages)
		if title == "" || title == thread.Title {
			return
		}

		tx, err := h.DB.BeginTx(ctx, nil)
		if err != nil {
			log.Printf("Thread(%s): could not begin title transaction: %v\n", thread.ID, err)
			return
		}

		if _, err := api.UpdateThreadTitle(context.WithValue(ctx, api.TransactionKey, tx), thread.ID, title); err != nil {
			tx.Rollback()
			log.Printf("Thread(%s): could not update title: %v\n", thread.ID, err)
			return
		}
		if err := tx.Commit(); err != nil {
			log.Printf("Thread(%s): could not commit title: %v\n", thread.ID, err)
		}
	}()
}

// conversation builds the full message list a finished turn produced, for
// title generation.
func conversation(history []stream.Message, message string, acc stream.State) []stream.Message {
	msgs := append(history, stream.Message{Role: stream.RoleHuman, Content: message})
	return append(msgs, acc.Messages...)
}
