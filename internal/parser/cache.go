package parser

import (
	"container/list"
	"context"
	"sync"

	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/pkg/utils"
	"go.uber.org/zap"
)

// TagCache is an LRU cache of parse results keyed by text.
type TagCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []models.Tag
}

// NewTagCache creates a new cache with the given capacity.
func NewTagCache(capacity int) *TagCache {
	return &TagCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached tags for key if present.
func (c *TagCache) Get(key string) ([]models.Tag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return cloneTags(elem.Value.(*cacheEntry).value), true
	}
	return nil, false
}

// Set stores a copy of tags for key, evicting the oldest entry if at capacity.
func (c *TagCache) Set(key string, tags []models.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = cloneTags(tags)
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: cloneTags(tags)})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached texts.
func (c *TagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// cloneTags copies tags so callers that append to a session never write into
// the cache's backing array.
func cloneTags(tags []models.Tag) []models.Tag {
	if tags == nil {
		return nil
	}
	out := make([]models.Tag, len(tags))
	copy(out, tags)
	return out
}

// CachingParser wraps a Parser with a TagCache. Parsing is side-effect free,
// so identical texts may share a result.
type CachingParser struct {
	next   Parser
	cache  *TagCache
	logger *zap.Logger
}

// NewCachingParser wraps next with an LRU cache of the given capacity.
func NewCachingParser(next Parser, capacity int, logger *zap.Logger) *CachingParser {
	logger = utils.LoggerOrNop(logger)
	return &CachingParser{next: next, cache: NewTagCache(capacity), logger: logger}
}

// Name implements Parser.
func (p *CachingParser) Name() string {
	return p.next.Name() + "+cache"
}

// Parse returns the cached result for text or delegates and caches on success.
// Failures are not cached.
func (p *CachingParser) Parse(ctx context.Context, text string) ([]models.Tag, error) {
	if tags, ok := p.cache.Get(text); ok {
		p.logger.Debug("parse cache hit", zap.Int("tags", len(tags)))
		return tags, nil
	}
	tags, err := p.next.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(text, tags)
	return cloneTags(tags), nil
}
