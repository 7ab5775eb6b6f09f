package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Encoder frames chunks onto one server-sent-event response. Every frame is
// flushed as soon as it is written so clients and intermediaries see output
// as it is produced.
type Encoder struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewEncoder prepares w for event streaming: it sets the stream headers and
// emits the initial comment frame that opens the connection through
// buffering proxies. It fails if w cannot flush.
func NewEncoder(w http.ResponseWriter) (*Encoder, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	e := &Encoder{w: w, f: f}
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil, err
	}
	f.Flush()
	return e, nil
}

// WriteChunk emits one data frame.
func (e *Encoder) WriteChunk(c Chunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	e.f.Flush()
	return nil
}

// WriteDone emits the terminal success framing: a done chunk for consumers
// reading data frames, then the named done event for consumers listening on
// event names.
func (e *Encoder) WriteDone() error {
	if err := e.WriteChunk(Chunk{Type: ChunkTypeDone}); err != nil {
		return err
	}
	if _, err := fmt.Fprint(e.w, "event: done\ndata: {}\n\n"); err != nil {
		return err
	}
	e.f.Flush()
	return nil
}

// WriteError emits the terminal failure framing: an error chunk, then the
// named error event carrying the message and thread id.
func (e *Encoder) WriteError(message, threadID string) error {
	if err := e.WriteChunk(Chunk{Type: ChunkTypeError, Error: message}); err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{
		"message":  message,
		"threadId": threadID,
	})
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(e.w, "event: error\ndata: %s\n\n", payload); err != nil {
		return err
	}
	e.f.Flush()
	return nil
}

// Stream drains events through Classify, framing every resulting chunk, and
// finishes with the terminal framing: done when the channel closes, error
// when an event carries Err. observe, when non-nil, sees every chunk in
// write order, terminal ones included; it is how a server tees the stream
// into its own accumulator. The returned error is the engine failure or the
// first write failure; the producer is expected to stop on context
// cancellation once writes stop draining the channel.
func (e *Encoder) Stream(events <-chan Event, threadID string, observe func(Chunk)) error {
	for ev := range events {
		if ev.Err != nil {
			if observe != nil {
				observe(Chunk{Type: ChunkTypeError, Error: ev.Err.Error()})
			}
			if err := e.WriteError(ev.Err.Error(), threadID); err != nil {
				return err
			}
			return ev.Err
		}

		for _, c := range Classify(ev) {
			if err := e.WriteChunk(c); err != nil {
				return err
			}
			if observe != nil {
				observe(c)
			}
		}
	}

	if observe != nil {
		observe(Chunk{Type: ChunkTypeDone})
	}
	return e.WriteDone()
}
