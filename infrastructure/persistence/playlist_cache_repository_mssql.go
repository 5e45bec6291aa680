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

// EnsurePlaylistCacheSchemaMSSQL creates the cache table on MSSQL if not exists
func EnsurePlaylistCacheSchemaMSSQL(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.playlist_cache') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.playlist_cache (
        playlist_id NVARCHAR(128) NOT NULL PRIMARY KEY,
        items NVARCHAR(MAX) NOT NULL,
        fetched_at DATETIMEOFFSET NOT NULL
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create playlist_cache table (mssql): %w", err)
	}
	if _, err := db.Exec(`IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_playlist_cache_fetched_at' AND object_id = OBJECT_ID('dbo.playlist_cache'))
CREATE INDEX idx_playlist_cache_fetched_at ON dbo.playlist_cache(fetched_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_playlist_cache_fetched_at (mssql)")
	}
	return nil
}

// PlaylistCacheRepositoryMSSQL implements IPlaylistCache on MSSQL
type PlaylistCacheRepositoryMSSQL struct {
	db *sql.DB
}

var _ repository.IPlaylistCache = (*PlaylistCacheRepositoryMSSQL)(nil)

func NewPlaylistCacheRepositoryMSSQL(db *sql.DB) *PlaylistCacheRepositoryMSSQL {
	return &PlaylistCacheRepositoryMSSQL{db: db}
}

func (r *PlaylistCacheRepositoryMSSQL) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT items, fetched_at FROM dbo.playlist_cache WHERE playlist_id=@p1`, playlistID)
	var raw string
	var fetchedAt time.Time
	if err := row.Scan(&raw, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var items []model.VideoItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode playlist_cache.items: %w", err)
	}
	return &model.CacheRecord{PlaylistID: playlistID, Items: items, FetchedAt: fetchedAt}, nil
}

// UpsertPlaylist merges one row; HOLDLOCK serializes concurrent merges on the same key.
func (r *PlaylistCacheRepositoryMSSQL) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if r.db == nil {
		return nil
	}
	raw, err := marshalItems(items)
	if err != nil {
		return err
	}
	q := `MERGE dbo.playlist_cache WITH (HOLDLOCK) AS target
USING (SELECT @p1 AS playlist_id) AS src
ON (target.playlist_id = src.playlist_id)
WHEN MATCHED AND target.fetched_at <= @p3 THEN UPDATE SET items=@p2, fetched_at=@p3
WHEN NOT MATCHED THEN INSERT (playlist_id, items, fetched_at)
VALUES (@p1, @p2, @p3);`
	_, err = r.db.ExecContext(ctx, q, playlistID, string(raw), fetchedAt.UTC())
	return err
}
