package quickmatch

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache of ranked results keyed by abbreviation. It lets a
// Ranker answer a repeated abbreviation, such as a user backspacing to a
// previous prompt, without rescoring the whole candidate list.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	abbr    string
	results []Ranked
}

// NewCache creates an LRU cache holding at most capacity abbreviations.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 100
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached results for abbr, or nil. The returned slice and
// its Positions are copies, so callers can keep or mutate them freely.
func (c *Cache) Get(abbr string) []Ranked {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[abbr]
	if !ok {
		return nil
	}
	c.order.MoveToFront(elem)
	return copyRanked(elem.Value.(*cacheEntry).results)
}

// Set stores results for abbr, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Set(abbr string, results []Ranked) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[abbr]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).results = copyRanked(results)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).abbr)
		}
	}

	elem := c.order.PushFront(&cacheEntry{abbr: abbr, results: copyRanked(results)})
	c.entries[abbr] = elem
}

// Delete removes the entry for abbr, if present.
func (c *Cache) Delete(abbr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[abbr]; ok {
		c.order.Remove(elem)
		delete(c.entries, abbr)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of cached abbreviations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// copyRanked deep-copies results so cache entries never share Positions
// slices with callers.
func copyRanked(results []Ranked) []Ranked {
	out := make([]Ranked, len(results))
	copy(out, results)
	for i := range out {
		if out[i].Positions != nil {
			out[i].Positions = append([]int(nil), out[i].Positions...)
		}
	}
	return out
}
