package cache

import (
	"context"
	"sync"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
)

// MemoryPlaylistCache keeps snapshots in process. Records are copied on the way in and out
// so callers cannot mutate shared state.
type MemoryPlaylistCache struct {
	mu      sync.RWMutex
	records map[string]model.CacheRecord
}

var _ repository.IPlaylistCache = (*MemoryPlaylistCache)(nil)

func NewMemoryPlaylistCache() *MemoryPlaylistCache {
	return &MemoryPlaylistCache{records: make(map[string]model.CacheRecord)}
}

func (c *MemoryPlaylistCache) GetPlaylist(_ context.Context, playlistID string) (*model.CacheRecord, error) {
	c.mu.RLock()
	rec, ok := c.records[playlistID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	rec.Items = copyItems(rec.Items)
	return &rec, nil
}

func (c *MemoryPlaylistCache) UpsertPlaylist(_ context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.records[playlistID]; ok && cur.FetchedAt.After(fetchedAt) {
		return nil
	}
	c.records[playlistID] = model.CacheRecord{
		PlaylistID: playlistID,
		Items:      copyItems(items),
		FetchedAt:  fetchedAt,
	}
	return nil
}

// Len is the number of cached playlists.
func (c *MemoryPlaylistCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func copyItems(items []model.VideoItem) []model.VideoItem {
	out := make([]model.VideoItem, len(items))
	copy(out, items)
	return out
}
