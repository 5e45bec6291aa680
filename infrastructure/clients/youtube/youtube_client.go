package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"playlist-service/domain/dto"
	"playlist-service/domain/repository"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client represents YouTube API client backed by the generated Data API v3 SDK.
// A *youtube.Service binds its API key at construction, so one service is kept per key.
type Client struct {
	cfg      Config
	opts     []option.ClientOption
	mu       sync.Mutex
	services map[string]*youtube.Service
}

var _ repository.IPlaylistSource = (*Client)(nil)

// NewYouTubeClient creates a new YouTube API client. A non-default BaseURL is passed to the SDK
// as its endpoint root.
func NewYouTubeClient(cfg *Config, opts ...option.ClientOption) *Client {
	c := cfg.withDefaults()
	if c.BaseURL != DefaultBaseURL {
		opts = append(opts, option.WithEndpoint(sdkEndpoint(c.BaseURL)))
	}
	return &Client{cfg: c, opts: opts, services: make(map[string]*youtube.Service)}
}

// sdkEndpoint strips the "/youtube/v3" suffix since the SDK appends it to every path.
func sdkEndpoint(baseURL string) string {
	return strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/youtube/v3") + "/"
}

func (c *Client) service(ctx context.Context, apiKey string) (*youtube.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.services[apiKey]; ok {
		return svc, nil
	}
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
	}
	c.services[apiKey] = svc
	return svc, nil
}

func (c *Client) ListPlaylistPage(ctx context.Context, playlistID, apiKey, pageToken string) (*dto.PlaylistPage, error) {
	svc, err := c.service(context.WithoutCancel(ctx), apiKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	call := svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(c.cfg.PageSize).
		Fields(googleapi.Field(playlistFields)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, statusError(gerr.Code, gerr.Message)
		}
		return nil, transportError(err)
	}

	page := &dto.PlaylistPage{
		Items:         make([]dto.PlaylistEntry, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item == nil || item.Snippet == nil {
			continue
		}
		entry := dto.PlaylistEntry{Title: item.Snippet.Title}
		if item.Snippet.ResourceId != nil {
			entry.VideoID = item.Snippet.ResourceId.VideoId
		}
		entry.ThumbnailURL = thumbnailFromDetails(item.Snippet.Thumbnails)
		page.Items = append(page.Items, entry)
	}
	return page, nil
}

func thumbnailFromDetails(d *youtube.ThumbnailDetails) string {
	if d == nil {
		return ""
	}
	url := func(t *youtube.Thumbnail) string {
		if t == nil {
			return ""
		}
		return t.Url
	}
	return pickThumbnail(url(d.High), url(d.Medium), url(d.Default))
}
