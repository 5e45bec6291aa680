package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// allPlaylists is the subscription key for streams opened without a playlistId filter.
const allPlaylists = "*"

var marshalEvent = json.Marshal

// RefreshHub fans playlist refresh events out to SSE subscribers.
type RefreshHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan model.PlaylistRefreshedEvent]struct{}
}

var _ repository.IPlaylistEvents = (*RefreshHub)(nil)

func NewRefreshHub() *RefreshHub {
	return &RefreshHub{subs: make(map[string]map[chan model.PlaylistRefreshedEvent]struct{})}
}

// Serve streams refresh events. The optional playlistId (or id) query parameter narrows
// the stream to one playlist.
func (h *RefreshHub) Serve(c *gin.Context) {
	key := c.Query("playlistId")
	if key == "" {
		key = c.Query("id")
	}
	if key == "" {
		key = allPlaylists
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := make(chan model.PlaylistRefreshedEvent, 8)
	h.subscribe(key, ch)
	defer h.unsubscribe(key, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, err := marshalEvent(evt)
			if err != nil {
				logger.GetLogger().WithField("playlist_id", evt.PlaylistID).WithField("error", err).Error("dropping unencodable refresh event")
				continue
			}
			c.SSEvent(evt.Type, string(data))
			c.Writer.Flush()
		}
	}
}

// PublishRefreshed never blocks; a subscriber whose buffer is full misses the event.
func (h *RefreshHub) PublishRefreshed(_ context.Context, event model.PlaylistRefreshedEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range []string{event.PlaylistID, allPlaylists} {
		for ch := range h.subs[key] {
			select {
			case ch <- event:
			default:
			}
		}
	}
	return nil
}

// Subscribers counts open streams.
func (h *RefreshHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.subs {
		n += len(s)
	}
	return n
}

func (h *RefreshHub) subscribe(key string, ch chan model.PlaylistRefreshedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan model.PlaylistRefreshedEvent]struct{})
	}
	h.subs[key][ch] = struct{}{}
}

func (h *RefreshHub) unsubscribe(key string, ch chan model.PlaylistRefreshedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subs[key]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subs, key)
		}
	}
}
