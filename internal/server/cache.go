package server

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// AudioCache is a byte-capacity LRU over synthesized audio. Repeated
// narrations of the same line (a common LLM habit) skip the TTS round
// trip entirely.
type AudioCache struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu sync.Mutex

	hits   int64
	misses int64
}

type cacheEntry struct {
	key      string
	audio    []byte
	mimeType string
}

// NewAudioCache creates a cache holding up to capacity bytes of audio.
// A zero or negative capacity disables caching.
func NewAudioCache(capacity int64) *AudioCache {
	return &AudioCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// CacheKey identifies a synthesis result by everything that shapes it.
func CacheKey(text, voice string, speed float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%g|%s", voice, speed, text)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached audio for key, if present.
func (c *AudioCache) Get(key string) ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, "", false
	}
	c.eviction.MoveToFront(elem)
	entry := elem.Value.(*cacheEntry)
	c.hits++
	return entry.audio, entry.mimeType, true
}

// Put stores synthesized audio, evicting least-recently-used entries
// until it fits. Payloads larger than the whole cache are dropped.
func (c *AudioCache) Put(key string, audio []byte, mimeType string) {
	size := int64(len(audio))
	if size == 0 || size > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size += size - int64(len(entry.audio))
		entry.audio = audio
		entry.mimeType = mimeType
		c.eviction.MoveToFront(elem)
		return
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		oldest := c.eviction.Back()
		entry := oldest.Value.(*cacheEntry)
		c.eviction.Remove(oldest)
		delete(c.items, entry.key)
		c.size -= int64(len(entry.audio))
	}

	c.items[key] = c.eviction.PushFront(&cacheEntry{key: key, audio: audio, mimeType: mimeType})
	c.size += size
}

// Stats reports hit and miss counts since startup.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len reports the number of cached entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}
