package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"playlist-service/domain/dto"
	"playlist-service/domain/repository"
)

const (
	DefaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	DefaultPageSize = 50
	DefaultTimeout  = 10 * time.Second

	// playlistFields trims the response to what normalization reads.
	playlistFields = "items(snippet(title,resourceId/videoId,thumbnails)),nextPageToken"
)

// Config represents YouTube API client configuration
type Config struct {
	BaseURL  string        `json:"base_url"`
	PageSize int64         `json:"page_size"`
	Timeout  time.Duration `json:"timeout"`
}

func (c *Config) withDefaults() Config {
	out := Config{BaseURL: DefaultBaseURL, PageSize: DefaultPageSize, Timeout: DefaultTimeout}
	if c == nil {
		return out
	}
	if c.BaseURL != "" {
		out.BaseURL = c.BaseURL
	}
	if c.PageSize > 0 && c.PageSize <= DefaultPageSize {
		out.PageSize = c.PageSize
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	return out
}

// APIError is a non-quota upstream failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("youtube api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("youtube api returned status %d: %s", e.StatusCode, e.Message)
}

func statusError(code int, message string) error {
	if code == http.StatusForbidden || code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", repository.ErrQuotaExceeded, code)
	}
	return &APIError{StatusCode: code, Message: message}
}

// transportError drops the request URL from net/http errors since it carries the API key.
func transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("youtube request failed: %w", urlErr.Err)
	}
	return fmt.Errorf("youtube request failed: %w", err)
}

func pickThumbnail(urls ...string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}

func pageFromJSON(resp *dto.PlaylistItemsResponse) *dto.PlaylistPage {
	page := &dto.PlaylistPage{
		Items:         make([]dto.PlaylistEntry, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, it := range resp.Items {
		th := it.Snippet.Thumbnails
		page.Items = append(page.Items, dto.PlaylistEntry{
			VideoID:      it.Snippet.ResourceID.VideoID,
			Title:        it.Snippet.Title,
			ThumbnailURL: pickThumbnail(th["high"].URL, th["medium"].URL, th["default"].URL),
		})
	}
	return page
}
