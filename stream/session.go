package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Session statuses
const (
	StatusIdle    = "idle"
	StatusSending = "sending"
	StatusError   = "error"
)

// Session drives send/receive cycles for one thread against the streaming
// endpoint. It owns request cancellation, feeds response bytes through a
// FrameParser, and folds decoded chunks into an accumulator State. At most
// one request is in flight; a new Send cancels the one before it.
type Session struct {
	// OnMessages, when set, receives a snapshot of the message list after
	// the human message is added and after every applied chunk. The slice
	// is never mutated afterward and is safe to retain.
	OnMessages func([]Message)
	// OnChunk, when set, sees every decoded chunk before it is applied.
	OnChunk func(Chunk)

	client   *http.Client
	baseURL  string
	threadID string

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int
	status string
	state  State
}

// NewSession returns a Session for one thread. client may be nil for the
// default client; baseURL is the API root, without a trailing slash.
func NewSession(client *http.Client, baseURL, threadID string) *Session {
	if client == nil {
		client = &http.Client{}
	}
	return &Session{
		client:   client,
		baseURL:  baseURL,
		threadID: threadID,
		status:   StatusIdle,
	}
}

// Status reports the session lifecycle state.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Messages returns the current message list snapshot.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Messages
}

// Reset replaces the session's conversation, typically with a thread's
// persisted history, and closes any open accumulation window.
func (s *Session) Reset(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Messages: copyMessages(msgs)}
}

// Cancel aborts the in-flight request, if any. Cancellation is not an
// error: no error message is appended and the partial accumulator state is
// simply abandoned.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Send posts text to the thread's stream endpoint and consumes the response
// until a terminal frame or transport closure. The human message is added
// to the list immediately; streamed chunks then extend it. Send returns nil
// on normal completion, on server-reported failure (which surfaces as an
// error message in the list), and on cancellation. It returns an error only
// for transport failures, which also close the open accumulation window.
func (s *Session) Send(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.status = StatusSending
	s.state = State{Messages: append(copyMessages(s.state.Messages), Message{
		ID:      newMessageID(),
		Role:    RoleHuman,
		Content: text,
	})}
	snapshot := s.state.Messages
	s.mu.Unlock()

	if s.OnMessages != nil {
		s.OnMessages(snapshot)
	}

	err := s.stream(ctx, text)
	canceled := err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil)
	cancel()

	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
		switch {
		case canceled || err == nil:
			if s.status == StatusSending {
				s.status = StatusIdle
			}
		default:
			s.state = s.state.Apply(Chunk{Type: ChunkTypeDone})
			s.status = StatusError
		}
	}
	s.mu.Unlock()

	if canceled {
		return nil
	}
	return err
}

// stream performs the request and consumes frames until terminal.
func (s *Session) stream(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/threads/%s/stream", s.baseURL, s.threadID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream request failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	parser := new(FrameParser)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range parser.Feed(buf[:n]) {
				switch f.Kind {
				case FrameData:
					s.apply(f.Chunk)
				case FrameDone:
					return nil
				case FrameError:
					s.markError()
					return nil
				}
			}
		}
		if err == io.EOF {
			return errors.New("stream closed before terminal frame")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) apply(c Chunk) {
	if s.OnChunk != nil {
		s.OnChunk(c)
	}

	s.mu.Lock()
	s.state = s.state.Apply(c)
	snapshot := s.state.Messages
	s.mu.Unlock()

	if s.OnMessages != nil {
		s.OnMessages(snapshot)
	}
}

// markError records a server-reported terminal failure. The error message
// itself arrived as an error chunk just before the named event.
func (s *Session) markError() {
	s.mu.Lock()
	s.status = StatusError
	s.mu.Unlock()
}
