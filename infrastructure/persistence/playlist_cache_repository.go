package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"
)

// EnsurePlaylistCacheSchema creates the table for caching playlist snapshots if not exists
func EnsurePlaylistCacheSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS playlist_cache (
        playlist_id TEXT PRIMARY KEY,
        items JSONB NOT NULL,
        fetched_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create playlist_cache table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_playlist_cache_fetched_at ON playlist_cache(fetched_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_playlist_cache_fetched_at")
	}

	return nil
}

// PlaylistCacheRepository stores playlist snapshots in PostgreSQL as JSONB.
type PlaylistCacheRepository struct{ db *sql.DB }

var _ repository.IPlaylistCache = (*PlaylistCacheRepository)(nil)

func NewPlaylistCacheRepository(db *sql.DB) *PlaylistCacheRepository {
	return &PlaylistCacheRepository{db: db}
}

func (r *PlaylistCacheRepository) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT items, fetched_at FROM playlist_cache WHERE playlist_id=$1`, playlistID)
	var raw []byte
	var fetchedAt time.Time
	if err := row.Scan(&raw, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var items []model.VideoItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode playlist_cache.items: %w", err)
	}
	return &model.CacheRecord{PlaylistID: playlistID, Items: items, FetchedAt: fetchedAt}, nil
}

// UpsertPlaylist replaces the row unless the stored fetched_at is newer.
func (r *PlaylistCacheRepository) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if r.db == nil {
		return nil
	}
	raw, err := marshalItems(items)
	if err != nil {
		return err
	}
	q := `INSERT INTO playlist_cache(playlist_id, items, fetched_at)
          VALUES ($1,$2,$3)
          ON CONFLICT (playlist_id) DO UPDATE SET items=EXCLUDED.items, fetched_at=EXCLUDED.fetched_at
          WHERE playlist_cache.fetched_at <= EXCLUDED.fetched_at`
	_, err = r.db.ExecContext(ctx, q, playlistID, raw, fetchedAt.UTC())
	return err
}

func marshalItems(items []model.VideoItem) ([]byte, error) {
	if items == nil {
		items = []model.VideoItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode playlist items: %w", err)
	}
	return raw, nil
}
