package repository

import (
	"context"
	"time"

	"playlist-service/domain/model"
)

// IPlaylistCache is the persistent key-value store of playlist snapshots.
type IPlaylistCache interface {
	// GetPlaylist returns the stored record or nil when absent.
	GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error)
	// UpsertPlaylist replaces the stored items wholesale. A write carrying an older
	// fetchedAt than the stored one is ignored.
	UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error
}

// IPlaylistEvents receives notifications about refreshed playlists.
type IPlaylistEvents interface {
	PublishRefreshed(ctx context.Context, event model.PlaylistRefreshedEvent) error
}
