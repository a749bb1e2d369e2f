// Package cache хранит готовые страницы общей ленты на время TTL.
//
// Пока запись свежая, читатели получают сохранённые байты, даже если за это
// время появились новые посты. Clear сбрасывает всё сразу.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/metrics"
)

// Loader строит страницу с номером page
type Loader func(ctx context.Context, page int) ([]byte, error)

type entry struct {
	body     []byte
	storedAt time.Time
}

type PageCache struct {
	ttl    time.Duration
	load   Loader
	now    func() time.Time
	log    zerolog.Logger
	mu     sync.RWMutex
	values map[int]entry
	// gen растёт при каждом Clear
	gen uint64
}

type Option func(*PageCache)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(c *PageCache) {
		c.now = now
	}
}

func New(ttl time.Duration, load Loader, opts ...Option) *PageCache {
	c := &PageCache{
		ttl:    ttl,
		load:   load,
		now:    time.Now,
		log:    log.WithComponent("page_cache"),
		values: make(map[int]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get возвращает страницу из кэша или строит её через Loader.
// Ошибки загрузки не кэшируются.
func (c *PageCache) Get(ctx context.Context, page int) ([]byte, error) {
	if page < 1 {
		page = 1
	}

	c.mu.RLock()
	e, ok := c.values[page]
	c.mu.RUnlock()

	if ok && c.now().Sub(e.storedAt) < c.ttl {
		metrics.PageCacheRequests.WithLabelValues("hit").Inc()
		return e.body, nil
	}
	metrics.PageCacheRequests.WithLabelValues("miss").Inc()

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	// Loader вызывается без блокировки: два одновременных промаха
	// построят страницу дважды, в кэше останется последняя.
	body, err := c.load(ctx, page)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen != gen {
		// Clear прошёл во время загрузки, body мог устареть
		c.mu.Unlock()
		return body, nil
	}
	now := c.now()
	c.sweep(now)
	c.values[page] = entry{body: body, storedAt: now}
	size := len(c.values)
	c.mu.Unlock()

	metrics.PageCacheEntries.Set(float64(size))
	c.log.Debug().Int("page", page).Msg("Index page cached")
	return body, nil
}

// sweep удаляет устаревшие записи, вызывается под c.mu.Lock
func (c *PageCache) sweep(now time.Time) {
	for page, e := range c.values {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.values, page)
		}
	}
}

// Clear удаляет все записи
func (c *PageCache) Clear() {
	c.mu.Lock()
	n := len(c.values)
	c.values = make(map[int]entry)
	c.gen++
	c.mu.Unlock()

	metrics.PageCacheEntries.Set(0)
	c.log.Info().Int("entries", n).Msg("Page cache cleared")
}

// Len - число записей, включая устаревшие, но ещё не вычищенные
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
