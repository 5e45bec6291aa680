package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"playlist-service/domain/dto"
	"playlist-service/domain/model"
	"playlist-service/infrastructure/logger"
	"playlist-service/usecase"

	"github.com/gin-gonic/gin"
)

// IPlaylistHandler defines the interface for playlist HTTP handlers
type IPlaylistHandler interface {
	GetPlaylist(ctx *gin.Context)
	Health(ctx *gin.Context)
}

// HealthInfo is the static part of the health report.
type HealthInfo struct {
	CacheDriver string
	APIKeys     int
	Client      string
}

// PlaylistHandler implements the playlist HTTP handlers
type PlaylistHandler struct {
	playlistUseCase usecase.IPlaylistUseCase
	health          HealthInfo
	now             func() time.Time
}

// NewPlaylistHandler creates a new playlist handler instance
func NewPlaylistHandler(playlistUseCase usecase.IPlaylistUseCase, health HealthInfo) *PlaylistHandler {
	return &PlaylistHandler{
		playlistUseCase: playlistUseCase,
		health:          health,
		now:             time.Now,
	}
}

// GetPlaylist handles GET /api/playlist and GET /api/get-playlist
func (h *PlaylistHandler) GetPlaylist(ctx *gin.Context) {
	playlistID := ctx.Query("playlistId")
	if playlistID == "" {
		playlistID = ctx.Query("id")
	}

	result, err := h.playlistUseCase.FetchPlaylist(ctx.Request.Context(), playlistID)
	if errors.Is(err, usecase.ErrPlaylistIDRequired) {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Playlist ID is required"})
		return
	}
	if err != nil || result == nil {
		logger.GetLogger().WithField("error", err).WithField("playlist_id", playlistID).Error("playlist lookup failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Failed to fetch playlist"})
		return
	}

	ctx.Header("Cache-Control", h.cacheControl(result))

	res := dto.PlaylistResponse{
		Success: result.Source != model.SourceFallback,
		Source:  string(result.Source),
		Videos:  result.Items,
		Cached:  result.Cached(),
		Total:   len(result.Items),
	}
	if result.Source == model.SourceFallback {
		res.Fallback = true
		res.Error = "Failed to fetch playlist, serving fallback data"
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *PlaylistHandler) cacheControl(result *model.PlaylistResult) string {
	window := h.playlistUseCase.FreshnessWindow()
	switch result.Source {
	case model.SourceCache:
		remaining := window - h.now().Sub(result.FetchedAt)
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", int(remaining.Seconds()), int(window.Seconds()))
	case model.SourceYouTube:
		return fmt.Sprintf("public, s-maxage=%d", int(window.Seconds()))
	default:
		return "no-store"
	}
}

// Health handles GET /healthz
func (h *PlaylistHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "ok",
		CacheDriver: h.health.CacheDriver,
		APIKeys:     h.health.APIKeys,
		Client:      h.health.Client,
	})
}
