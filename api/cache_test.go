package api

import (
	"fmt"
	"testing"
)

func cacheMessages(threadID string, n, contentLen int) []*Message {
	var messages []*Message
	for i := 0; i < n; i++ {
		content := make([]byte, contentLen)
		for j := range content {
			content[j] = 'x'
		}
		messages = append(messages, &Message{
			ID:       fmt.Sprintf("%s-%d", threadID, i),
			ThreadID: threadID,
			Role:     "ai",
			Content:  string(content),
		})
	}
	return messages
}

func TestMessageCacheGetPut(t *testing.T) {
	c := NewMessageCache(1 << 20)

	if _, ok := c.Get("t1"); ok {
		t.Error("expected miss on empty cache")
	}

	msgs := cacheMessages("t1", 3, 10)
	c.Put("t1", msgs)

	got, ok := c.Get("t1")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 3 || got[0].ID != "t1-0" {
		t.Errorf("unexpected cached messages: %#v", got)
	}

	// replacement keeps a single entry
	c.Put("t1", cacheMessages("t1", 1, 10))
	got, ok = c.Get("t1")
	if !ok || len(got) != 1 {
		t.Errorf("expected replaced entry with 1 message, got %d (hit %v)", len(got), ok)
	}
}

func TestMessageCacheEviction(t *testing.T) {
	// each thread is ~140 bytes of JSON; bound the cache to about two
	c := NewMessageCache(300)

	c.Put("t1", cacheMessages("t1", 1, 50))
	c.Put("t2", cacheMessages("t2", 1, 50))
	c.Put("t3", cacheMessages("t3", 1, 50))

	if _, ok := c.Get("t1"); ok {
		t.Error("expected oldest thread evicted")
	}
	if _, ok := c.Get("t3"); !ok {
		t.Error("expected newest thread retained")
	}

	// a recently used entry survives the next eviction instead
	c.Get("t2")
	c.Put("t4", cacheMessages("t4", 1, 50))
	if _, ok := c.Get("t2"); !ok {
		t.Error("expected recently used thread retained")
	}
}

func TestMessageCacheOversizedEntry(t *testing.T) {
	c := NewMessageCache(10)

	c.Put("t1", cacheMessages("t1", 1, 100))
	if _, ok := c.Get("t1"); !ok {
		t.Error("expected sole oversized entry retained")
	}

	c.Put("t2", cacheMessages("t2", 1, 100))
	if _, ok := c.Get("t1"); ok {
		t.Error("expected oversized entry evicted once another arrived")
	}
}

func TestMessageCacheInvalidate(t *testing.T) {
	c := NewMessageCache(1 << 20)

	c.Put("t1", cacheMessages("t1", 2, 10))
	c.Invalidate("t1")
	if _, ok := c.Get("t1"); ok {
		t.Error("expected miss after invalidate")
	}

	// invalidating an absent thread is a no-op
	c.Invalidate("missing")
}
