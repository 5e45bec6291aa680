package dto

import "playlist-service/domain/model"

// PlaylistEntry is one raw item of a playlistItems page before normalization.
type PlaylistEntry struct {
	VideoID      string
	Title        string
	ThumbnailURL string
}

// PlaylistPage is a single page of the upstream paged listing.
type PlaylistPage struct {
	Items         []PlaylistEntry
	NextPageToken string
}

// PlaylistItemsQuery is the query string of a playlistItems.list request.
type PlaylistItemsQuery struct {
	Part       string `url:"part"`
	MaxResults int64  `url:"maxResults"`
	PlaylistID string `url:"playlistId"`
	Key        string `url:"key"`
	PageToken  string `url:"pageToken,omitempty"`
	Fields     string `url:"fields,omitempty"`
}

// PlaylistItemsResponse mirrors the subset of the playlistItems.list JSON body the service reads.
type PlaylistItemsResponse struct {
	NextPageToken string             `json:"nextPageToken"`
	Items         []PlaylistItemJSON `json:"items"`
}

type PlaylistItemJSON struct {
	Snippet struct {
		Title      string `json:"title"`
		ResourceID struct {
			VideoID string `json:"videoId"`
		} `json:"resourceId"`
		Thumbnails map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

// PlaylistResponse is the body of GET /api/playlist.
type PlaylistResponse struct {
	Success  bool              `json:"success"`
	Source   string            `json:"source"`
	Videos   []model.VideoItem `json:"videos"`
	Cached   bool              `json:"cached"`
	Total    int               `json:"total"`
	Fallback bool              `json:"fallback,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ErrorResponse is returned for 4xx and 5xx outcomes.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	CacheDriver string `json:"cacheDriver"`
	APIKeys     int    `json:"apiKeys"`
	Client      string `json:"client"`
}
