package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistCacheRow is the gorm model of the MySQL playlist_cache table.
type PlaylistCacheRow struct {
	PlaylistID string    `gorm:"column:playlist_id;primaryKey;size:128"`
	Items      string    `gorm:"column:items;type:json;not null"`
	FetchedAt  time.Time `gorm:"column:fetched_at;not null;index"`
}

func (PlaylistCacheRow) TableName() string {
	return "playlist_cache"
}

// PlaylistCacheRepositoryGorm implements IPlaylistCache on MySQL through gorm.
type PlaylistCacheRepositoryGorm struct {
	db *gorm.DB
}

var _ repository.IPlaylistCache = (*PlaylistCacheRepositoryGorm)(nil)

func NewPlaylistCacheRepositoryGorm(db *gorm.DB) *PlaylistCacheRepositoryGorm {
	return &PlaylistCacheRepositoryGorm{db: db}
}

// AutoMigrate creates or updates the playlist_cache table.
func (r *PlaylistCacheRepositoryGorm) AutoMigrate() error {
	if r.db == nil {
		return fmt.Errorf("db is nil")
	}
	return r.db.AutoMigrate(&PlaylistCacheRow{})
}

// OpenPlaylistCacheGorm migrates the table and returns the repository with a func releasing the pool.
// The pool is closed when the migration fails.
func OpenPlaylistCacheGorm(db *gorm.DB) (*PlaylistCacheRepositoryGorm, func(), error) {
	repo := NewPlaylistCacheRepositoryGorm(db)
	closeFn := func() {}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			closeFn = func() { _ = sqlDB.Close() }
		}
	}
	if err := repo.AutoMigrate(); err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return repo, closeFn, nil
}

func (r *PlaylistCacheRepositoryGorm) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	var row PlaylistCacheRow
	if err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var items []model.VideoItem
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, fmt.Errorf("decode playlist_cache.items: %w", err)
	}
	return &model.CacheRecord{PlaylistID: row.PlaylistID, Items: items, FetchedAt: row.FetchedAt}, nil
}

// UpsertPlaylist relies on MySQL evaluating ON DUPLICATE KEY assignments left to right:
// items is compared against the old fetched_at before fetched_at itself is replaced.
func (r *PlaylistCacheRepositoryGorm) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if r.db == nil {
		return nil
	}
	raw, err := marshalItems(items)
	if err != nil {
		return err
	}
	row := PlaylistCacheRow{PlaylistID: playlistID, Items: string(raw), FetchedAt: fetchedAt.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "playlist_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "items"}, Value: gorm.Expr("IF(VALUES(fetched_at) >= fetched_at, VALUES(items), items)")},
			{Column: clause.Column{Name: "fetched_at"}, Value: gorm.Expr("IF(VALUES(fetched_at) >= fetched_at, VALUES(fetched_at), fetched_at)")},
		},
	}).Create(&row).Error
}
