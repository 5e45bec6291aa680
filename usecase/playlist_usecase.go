package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"
	"playlist-service/infrastructure/utils"
)

var ErrPlaylistIDRequired = errors.New("playlist id is required")

// IPlaylistUseCase resolves a playlist id to its items, serving from the cache while it is fresh.
type IPlaylistUseCase interface {
	// FetchPlaylist never fails on upstream or storage problems; those degrade to a fallback
	// or uncached result. The only error is ErrPlaylistIDRequired.
	FetchPlaylist(ctx context.Context, playlistID string) (*model.PlaylistResult, error)
	FreshnessWindow() time.Duration
}

// IKeyRotator is the shared API key pool.
type IKeyRotator interface {
	Next() string
	Len() int
}

type PlaylistConfig struct {
	FreshnessWindow     time.Duration
	MaxPages            int
	PageDelay           time.Duration
	PlaceholderDuration string
	// PublishTimeout bounds each listener call made after a refresh.
	PublishTimeout time.Duration
}

func (c PlaylistConfig) withDefaults() PlaylistConfig {
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = 24 * time.Hour
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	if c.PlaceholderDuration == "" {
		c.PlaceholderDuration = "10:00"
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	return c
}

// PlaylistUseCase implements IPlaylistUseCase
type PlaylistUseCase struct {
	source repository.IPlaylistSource
	keys   IKeyRotator
	cache  repository.IPlaylistCache
	events []repository.IPlaylistEvents
	cfg    PlaylistConfig
	now    func() time.Time

	pending sync.WaitGroup
}

// NewPlaylistUseCase creates a new playlist use case instance
func NewPlaylistUseCase(source repository.IPlaylistSource, keys IKeyRotator, cache repository.IPlaylistCache, cfg PlaylistConfig) *PlaylistUseCase {
	return &PlaylistUseCase{
		source: source,
		keys:   keys,
		cache:  cache,
		cfg:    cfg.withDefaults(),
		now:    utils.GetCurrentTime,
	}
}

// WithEvents registers listeners notified after each successful refresh (fluent)
func (u *PlaylistUseCase) WithEvents(events ...repository.IPlaylistEvents) *PlaylistUseCase {
	for _, e := range events {
		if e != nil {
			u.events = append(u.events, e)
		}
	}
	return u
}

// WithClock overrides the time source (fluent)
func (u *PlaylistUseCase) WithClock(now func() time.Time) *PlaylistUseCase {
	u.now = now
	return u
}

func (u *PlaylistUseCase) FreshnessWindow() time.Duration {
	return u.cfg.FreshnessWindow
}

func (u *PlaylistUseCase) FetchPlaylist(ctx context.Context, playlistID string) (*model.PlaylistResult, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, ErrPlaylistIDRequired
	}
	lg := logger.GetLogger().WithField("playlist_id", playlistID)

	now := u.now()
	if rec := u.lookup(ctx, playlistID); rec != nil {
		if rec.Age(now) < u.cfg.FreshnessWindow {
			lg.WithField("age", rec.Age(now).String()).Debug("playlist cache hit")
			return &model.PlaylistResult{
				PlaylistID: playlistID,
				Items:      rec.Items,
				Source:     model.SourceCache,
				FetchedAt:  rec.FetchedAt,
			}, nil
		}
		lg.WithField("age", rec.Age(now).String()).Debug("playlist cache stale")
	}

	run := u.paginate(ctx, playlistID)
	if run.state == stateFailed {
		lg.WithField("reason", run.reason).WithField("pages", run.cursor.pageCount).Warn("serving fallback playlist")
		return &model.PlaylistResult{
			PlaylistID: playlistID,
			Items:      model.FallbackVideos(),
			Source:     model.SourceFallback,
			Reason:     run.reason,
		}, nil
	}

	fetchedAt := u.now()
	if u.cache != nil {
		// Not bound to the request lifetime.
		if err := u.cache.UpsertPlaylist(context.WithoutCancel(ctx), playlistID, run.collected, fetchedAt); err != nil {
			lg.WithField("error", err).Error("failed writing playlist cache")
		}
	}
	u.publish(ctx, model.PlaylistRefreshedEvent{
		Type:       model.PlaylistRefreshedType,
		PlaylistID: playlistID,
		Total:      len(run.collected),
		Pages:      run.cursor.pageCount,
		FetchedAt:  fetchedAt,
	})
	lg.WithField("items", len(run.collected)).WithField("pages", run.cursor.pageCount).Info("playlist fetched from youtube")

	return &model.PlaylistResult{
		PlaylistID: playlistID,
		Items:      run.collected,
		Source:     model.SourceYouTube,
		FetchedAt:  fetchedAt,
		Pages:      run.cursor.pageCount,
	}, nil
}

// lookup treats any read failure as a miss.
func (u *PlaylistUseCase) lookup(ctx context.Context, playlistID string) *model.CacheRecord {
	if u.cache == nil {
		return nil
	}
	rec, err := u.cache.GetPlaylist(ctx, playlistID)
	if err != nil {
		logger.GetLogger().WithField("playlist_id", playlistID).WithField("error", err).Warn("failed reading playlist cache")
		return nil
	}
	return rec
}

// publish notifies listeners in the background so a slow broker never holds the response.
// Each listener gets its own deadline.
func (u *PlaylistUseCase) publish(ctx context.Context, event model.PlaylistRefreshedEvent) {
	if len(u.events) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)
	u.pending.Add(1)
	go func() {
		defer u.pending.Done()
		for _, e := range u.events {
			pctx, cancel := context.WithTimeout(base, u.cfg.PublishTimeout)
			if err := e.PublishRefreshed(pctx, event); err != nil {
				logger.GetLogger().WithField("playlist_id", event.PlaylistID).WithField("error", err).Warn("failed publishing playlist event")
			}
			cancel()
		}
	}()
}

// WaitEvents blocks until every in-flight publish has returned.
func (u *PlaylistUseCase) WaitEvents() {
	u.pending.Wait()
}
