package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playlist-service/domain/dto"
	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"

	"golang.org/x/time/rate"
)

type fetchState int

const (
	stateFetchingPage fetchState = iota
	stateRotatingKey
	stateDone
	stateFailed
)

func (s fetchState) String() string {
	switch s {
	case stateFetchingPage:
		return "FetchingPage"
	case stateRotatingKey:
		return "RotatingKey"
	case stateDone:
		return "Done"
	case stateFailed:
		return "Failed"
	}
	return fmt.Sprintf("fetchState(%d)", int(s))
}

// Transition table:
//
//	FetchingPage --ok, next token, below cap--> FetchingPage
//	FetchingPage --ok, no next token--------->  Done
//	FetchingPage --ok, cap reached----------->  Done (Failed when nothing was collected)
//	FetchingPage --quota rejection----------->  RotatingKey
//	FetchingPage --other error--------------->  Failed
//	RotatingKey  --untried key left---------->  FetchingPage (same page)
//	RotatingKey  --every key rejected-------->  Failed
type pageCursor struct {
	token     string
	pageCount int
}

type paginationRun struct {
	state     fetchState
	cursor    pageCursor
	collected []model.VideoItem
	reason    string

	key      string
	attempts int
	limiter  *rate.Limiter
}

func (u *PlaylistUseCase) paginate(ctx context.Context, playlistID string) *paginationRun {
	run := &paginationRun{
		state:     stateFetchingPage,
		collected: []model.VideoItem{},
		limiter:   rate.NewLimiter(rate.Every(u.cfg.PageDelay), 1),
	}
	if u.keys == nil || u.keys.Len() == 0 {
		run.fail("no api keys configured")
		return run
	}

	for run.state == stateFetchingPage || run.state == stateRotatingKey {
		switch run.state {
		case stateFetchingPage:
			u.fetchPage(ctx, playlistID, run)
		case stateRotatingKey:
			u.rotateKey(playlistID, run)
		}
	}
	return run
}

// fetchPage draws a fresh key for every upstream call. Only the first attempt at a page is paced;
// a retry after a rejected key goes out immediately.
func (u *PlaylistUseCase) fetchPage(ctx context.Context, playlistID string, run *paginationRun) {
	if run.attempts == 0 {
		if err := run.limiter.Wait(ctx); err != nil {
			run.fail("waiting between pages: " + err.Error())
			return
		}
	}
	run.key = u.keys.Next()

	page, err := u.source.ListPlaylistPage(ctx, playlistID, run.key, run.cursor.token)
	switch {
	case errors.Is(err, repository.ErrQuotaExceeded):
		run.state = stateRotatingKey
		return
	case err != nil:
		run.fail(err.Error())
		return
	case page == nil:
		run.fail("empty upstream response")
		return
	}

	run.attempts = 0
	run.cursor.pageCount++
	run.collected = append(run.collected, u.normalize(page.Items)...)

	next := strings.TrimSpace(page.NextPageToken)
	if next == "" {
		run.state = stateDone
		return
	}
	if run.cursor.pageCount >= u.cfg.MaxPages {
		logger.GetLogger().WithField("playlist_id", playlistID).WithField("max_pages", u.cfg.MaxPages).Warn("page cap reached, truncating playlist")
		if len(run.collected) == 0 {
			run.fail("page cap reached with no items")
			return
		}
		run.state = stateDone
		return
	}
	run.cursor.token = next
}

// rotateKey counts the rejection against the current page. The next key is drawn by fetchPage.
func (u *PlaylistUseCase) rotateKey(playlistID string, run *paginationRun) {
	run.attempts++
	logger.GetLogger().WithField("playlist_id", playlistID).WithField("attempt", run.attempts).WithField("page", run.cursor.pageCount+1).Warn("api key rejected, rotating")
	if run.attempts >= u.keys.Len() {
		run.fail("all api keys rejected")
		return
	}
	run.state = stateFetchingPage
}

func (r *paginationRun) fail(reason string) {
	r.state = stateFailed
	r.reason = reason
}

func (u *PlaylistUseCase) normalize(entries []dto.PlaylistEntry) []model.VideoItem {
	out := make([]model.VideoItem, 0, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.VideoID)
		if id == "" {
			continue
		}
		thumb := e.ThumbnailURL
		if thumb == "" {
			thumb = model.ThumbnailURL(id)
		}
		out = append(out, model.VideoItem{
			ID:           id,
			YouTubeID:    id,
			Title:        e.Title,
			ThumbnailURL: thumb,
			Duration:     u.cfg.PlaceholderDuration,
		})
	}
	return out
}
