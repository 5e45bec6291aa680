package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"

	"github.com/redis/go-redis/v9"
)

const playlistKeyPrefix = "playlist_"

// upsertScript writes the hash only when the stored fetched_at is not newer than ARGV[2].
// ARGV: items JSON, fetched_at unix millis, ttl millis (0 keeps the key forever).
var upsertScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'fetched_at')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'items', ARGV[1], 'fetched_at', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// RedisPlaylistCache stores each playlist as a hash {items, fetched_at} under "playlist_<id>".
type RedisPlaylistCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ repository.IPlaylistCache = (*RedisPlaylistCache)(nil)

// NewRedisPlaylistCache builds the store; ttl <= 0 disables expiry.
func NewRedisPlaylistCache(client redis.Cmdable, ttl time.Duration) *RedisPlaylistCache {
	return &RedisPlaylistCache{client: client, ttl: ttl}
}

func playlistKey(playlistID string) string {
	return playlistKeyPrefix + playlistID
}

func (c *RedisPlaylistCache) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if c.client == nil {
		return nil, nil
	}
	vals, err := c.client.HMGet(ctx, playlistKey(playlistID), "items", "fetched_at").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis hmget: %w", err)
	}
	rawItems, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	rawFetched, _ := vals[1].(string)
	millis, err := strconv.ParseInt(rawFetched, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at %q: %w", rawFetched, err)
	}
	var items []model.VideoItem
	if err := json.Unmarshal([]byte(rawItems), &items); err != nil {
		return nil, fmt.Errorf("decode cached items: %w", err)
	}
	return &model.CacheRecord{
		PlaylistID: playlistID,
		Items:      items,
		FetchedAt:  time.UnixMilli(millis).UTC(),
	}, nil
}

func (c *RedisPlaylistCache) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if c.client == nil {
		return nil
	}
	if items == nil {
		items = []model.VideoItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	keys := []string{playlistKey(playlistID)}
	args := []interface{}{string(raw), fetchedAt.UnixMilli(), c.ttl.Milliseconds()}
	if err := upsertScript.Run(ctx, c.client, keys, args...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis upsert playlist: %w", err)
	}
	return nil
}
