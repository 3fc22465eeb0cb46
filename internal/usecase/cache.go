package usecase

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResponseCache maps an exact query string to a cleaned model reply. It
// ignores conversation history, so identical questions asked in different
// contexts share an answer until the entry is evicted. Safe for concurrent
// use; a nil *ResponseCache is a disabled cache.
type ResponseCache struct {
	entries *lru.Cache[string, string]
}

// NewResponseCache creates a cache holding at most size replies, evicting
// the least recently used beyond that.
func NewResponseCache(size int) (*ResponseCache, error) {
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("usecase: create response cache: %w", err)
	}
	return &ResponseCache{entries: entries}, nil
}

func (c *ResponseCache) Get(query string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.entries.Get(query)
}

func (c *ResponseCache) Add(query, reply string) {
	if c == nil {
		return
	}
	c.entries.Add(query, reply)
}

func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
