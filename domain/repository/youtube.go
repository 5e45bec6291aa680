package repository

import (
	"context"
	"errors"

	"playlist-service/domain/dto"
)

// ErrQuotaExceeded marks an upstream rejection of the API key (HTTP 403 or 429).
// Callers rotate to the next key and retry the same page.
var ErrQuotaExceeded = errors.New("youtube: api key rejected (quota)")

// IPlaylistSource lists one page of a playlist's items.
type IPlaylistSource interface {
	ListPlaylistPage(ctx context.Context, playlistID, apiKey, pageToken string) (*dto.PlaylistPage, error)
}
