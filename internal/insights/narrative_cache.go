package insights

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	narrativeCacheMaxEntries = 256
	narrativeCacheTTL        = 24 * time.Hour
)

// narrativeCache remembers AI narratives for identical entry sets, so asking
// for insights twice does not call the model twice. Least recently used
// entries are evicted first.
type narrativeCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type narrativeCacheEntry struct {
	key       string
	narrative string
	expiresAt time.Time
}

func newNarrativeCache(maxEntries int) *narrativeCache {
	if maxEntries <= 0 {
		return nil
	}

	return &narrativeCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func narrativeCacheKey(period string, text string) string {
	if text == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(period + "\x00" + text))

	return hex.EncodeToString(hash[:])
}

func (c *narrativeCache) get(key string, now time.Time) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*narrativeCacheEntry) //nolint:forcetypeassert // Only entries are pushed.
	if now.After(entry.expiresAt) {
		c.removeLocked(elem)

		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.narrative, true
}

func (c *narrativeCache) set(key string, narrative string, now time.Time) {
	if c == nil || key == "" || narrative == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := now.Add(narrativeCacheTTL)

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*narrativeCacheEntry) //nolint:forcetypeassert // Only entries are pushed.
		entry.narrative = narrative
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	c.entries[key] = c.order.PushFront(&narrativeCacheEntry{
		key:       key,
		narrative: narrative,
		expiresAt: expiresAt,
	})

	c.evictLocked(now)
}

func (c *narrativeCache) evictLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*narrativeCacheEntry).expiresAt) { //nolint:forcetypeassert // Only entries are pushed.
			c.removeLocked(elem)
		}
		elem = prev
	}

	for len(c.entries) > c.maxEntries {
		c.removeLocked(c.order.Back())
	}
}

func (c *narrativeCache) removeLocked(elem *list.Element) {
	delete(c.entries, elem.Value.(*narrativeCacheEntry).key) //nolint:forcetypeassert // Only entries are pushed.
	c.order.Remove(elem)
}
