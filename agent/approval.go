package agent

import (
	"context"
	"sync"
	"time"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/stream"
)

// Approval modes
const (
	ApprovalAuto   = "auto"
	ApprovalPrompt = "prompt"
)

// PendingApproval is a gated tool call waiting for a verdict.
type PendingApproval struct {
	ThreadID string          `json:"thread_id"`
	Call     stream.ToolCall `json:"call"`
	Expires  time.Time       `json:"expires"`

	verdict chan bool
}

// ApprovalStore holds tool calls awaiting human approval, keyed by tool
// call id. Entries expire after the configured TTL; expiry counts as a
// denial. In auto mode every call passes without being held.
type ApprovalStore struct {
	mode string
	ttl  time.Duration

	mu      sync.Mutex
	pending map[string]*PendingApproval
}

// NewApprovalStore returns an ApprovalStore enforcing the given mode and
// TTL, with a background scavenger for abandoned entries.
func NewApprovalStore(mode string, ttl time.Duration) *ApprovalStore {
	s := &ApprovalStore{
		mode:    mode,
		ttl:     ttl,
		pending: make(map[string]*PendingApproval),
	}
	go scavenge(s)
	return s
}

// scavenge removes expired entries every hour
func scavenge(s *ApprovalStore) {
	for {
		time.Sleep(time.Hour)
		now := time.Now()

		s.mu.Lock()
		for id, p := range s.pending {
			if p.Expires.Before(now) {
				delete(s.pending, id)
			}
		}
		s.mu.Unlock()
	}
}

// Await blocks until the call is approved, denied, or expired, or until ctx
// ends. A nil store and auto mode approve immediately.
func (s *ApprovalStore) Await(ctx context.Context, threadID string, call stream.ToolCall) (bool, error) {
	if s == nil || s.mode != ApprovalPrompt {
		return true, nil
	}

	p := &PendingApproval{
		ThreadID: threadID,
		Call:     call,
		Expires:  time.Now().Add(s.ttl),
		verdict:  make(chan bool, 1),
	}

	s.mu.Lock()
	s.pending[call.ID] = p
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, call.ID)
		s.mu.Unlock()
	}()

	timer := time.NewTimer(s.ttl)
	defer timer.Stop()

	select {
	case approved := <-p.verdict:
		return approved, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve delivers a verdict for a pending call, reporting whether the call
// was found still pending for the given thread.
func (s *ApprovalStore) Resolve(threadID, callID string, approve bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[callID]
	if !ok || p.ThreadID != threadID || p.Expires.Before(time.Now()) {
		return false
	}

	select {
	case p.verdict <- approve:
	default:
	}
	delete(s.pending, callID)
	return true
}

// Pending returns the calls currently awaiting approval for the thread.
func (s *ApprovalStore) Pending(threadID string) []*PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*PendingApproval
	now := time.Now()
	for _, p := range s.pending {
		if p.ThreadID == threadID && p.Expires.After(now) {
			pending = append(pending, p)
		}
	}
	return pending
}

// Mode reports the store's approval mode.
func (s *ApprovalStore) Mode() string {
	if s == nil {
		return ApprovalAuto
	}
	return s.mode
}
