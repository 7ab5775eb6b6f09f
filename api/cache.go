package api

import (
	"container/list"
	"encoding/json"
	"sync"
)

// MessageCache is an in-memory LRU cache of per-thread message lists,
// bounded by the approximate byte size of the cached content. Read paths
// check the cache before the database; write paths invalidate. Cached
// slices are treated as immutable snapshots and must not be modified by
// callers.
type MessageCache struct {
	mu       sync.Mutex
	maxBytes int
	curBytes int
	cache    map[string]*list.Element
	lru      *list.List
}

type cacheEntry struct {
	threadID string
	messages []*Message
	bytes    int
}

// NewMessageCache returns a MessageCache bounded to roughly maxBytes of
// message content.
func NewMessageCache(maxBytes int) *MessageCache {
	return &MessageCache{
		maxBytes: maxBytes,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached messages for the thread and whether they were
// present, marking the entry as recently used.
func (c *MessageCache) Get(threadID string) ([]*Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.cache[threadID]
	if !ok {
		return nil, false
	}

	c.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).messages, true
}

// Put stores the thread's messages, replacing any previous entry and
// evicting least recently used threads if the cache grows past its bound.
func (c *MessageCache) Put(threadID string, messages []*Message) {
	bytes := estimateBytes(messages)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.cache[threadID]; ok {
		entry := el.Value.(*cacheEntry)
		c.curBytes += bytes - entry.bytes
		entry.messages = messages
		entry.bytes = bytes
		c.lru.MoveToFront(el)
	} else {
		el := c.lru.PushFront(&cacheEntry{threadID: threadID, messages: messages, bytes: bytes})
		c.cache[threadID] = el
		c.curBytes += bytes
	}

	c.evict()
}

// Invalidate drops the thread's entry, if any.
func (c *MessageCache) Invalidate(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.cache[threadID]; ok {
		c.curBytes -= el.Value.(*cacheEntry).bytes
		c.lru.Remove(el)
		delete(c.cache, threadID)
	}
}

// evict removes least recently used entries until the cache fits its bound.
// The most recent entry always stays, even if it is larger than the bound
// on its own.
func (c *MessageCache) evict() {
	for c.curBytes > c.maxBytes && c.lru.Len() > 1 {
		el := c.lru.Back()
		if el == nil {
			return
		}
		entry := el.Value.(*cacheEntry)
		c.curBytes -= entry.bytes
		c.lru.Remove(el)
		delete(c.cache, entry.threadID)
	}
}

// estimateBytes approximates the in-memory size of a message list by the
// length of its JSON form.
func estimateBytes(messages []*Message) int {
	bytes := 0
	for _, m := range messages {
		if data, err := json.Marshal(m); err == nil {
			bytes += len(data)
		}
	}
	return bytes
}
