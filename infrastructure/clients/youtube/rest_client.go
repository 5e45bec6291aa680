package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"playlist-service/domain/dto"
	"playlist-service/domain/repository"

	"github.com/google/go-querystring/query"
)

// RestClient calls playlistItems.list over plain HTTP. The API key is a per-call argument
// so one client serves the whole key pool.
type RestClient struct {
	cfg        Config
	httpClient *http.Client
}

var _ repository.IPlaylistSource = (*RestClient)(nil)

// NewRestClient builds a client; a nil httpClient gets one bounded by cfg.Timeout.
func NewRestClient(cfg *Config, httpClient *http.Client) *RestClient {
	c := cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	return &RestClient{cfg: c, httpClient: httpClient}
}

func (c *RestClient) ListPlaylistPage(ctx context.Context, playlistID, apiKey, pageToken string) (*dto.PlaylistPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	values, err := query.Values(dto.PlaylistItemsQuery{
		Part:       "snippet",
		MaxResults: c.cfg.PageSize,
		PlaylistID: playlistID,
		Key:        apiKey,
		PageToken:  pageToken,
		Fields:     playlistFields,
	})
	if err != nil {
		return nil, fmt.Errorf("encode playlistItems query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/playlistItems?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, readErrorMessage(resp.Body))
	}

	var body dto.PlaylistItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode playlist page: %w", err)
	}
	return pageFromJSON(&body), nil
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.Error.Message
}
