package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "note:list"
	keyFeed = "note:feed"
)

// NoteCache caches the public note list and the first feed window in Redis.
// Every note write invalidates both; pages behind a cursor always hit the store.
type NoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewNoteCache returns a new NoteCache.
func NewNoteCache(rdb *redis.Client, ttl time.Duration) *NoteCache {
	return &NoteCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached note list or nil on miss.
func (c *NoteCache) GetList(ctx context.Context) ([]dom.Note, error) {
	return c.get(ctx, keyList)
}

// SetList stores the note list.
func (c *NoteCache) SetList(ctx context.Context, notes []dom.Note) error {
	return c.set(ctx, keyList, notes)
}

// GetFeedWindow returns the cached first feed window (probe row included) or nil on miss.
func (c *NoteCache) GetFeedWindow(ctx context.Context) ([]dom.Note, error) {
	return c.get(ctx, keyFeed)
}

// SetFeedWindow stores the first feed window.
func (c *NoteCache) SetFeedWindow(ctx context.Context, notes []dom.Note) error {
	return c.set(ctx, keyFeed, notes)
}

// InvalidateAll drops all cached note listings.
func (c *NoteCache) InvalidateAll(ctx context.Context) error {
	return c.rdb.Del(ctx, keyList, keyFeed).Err()
}

func (c *NoteCache) get(ctx context.Context, key string) ([]dom.Note, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var notes []dom.Note
	if err := json.Unmarshal(b, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *NoteCache) set(ctx context.Context, key string, notes []dom.Note) error {
	b, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
