package configuration

import (
	"os"
	"strings"
	"time"
)

const (
	YouTubeClientREST = "rest"
	YouTubeClientSDK  = "sdk"
)

func initYouTube(C *Config) {
	// YOUTUBE_API_KEYS wins over the config file; YOUTUBE_API_KEY is appended as a single extra key.
	keys := C.YouTube.APIKeys
	if v := os.Getenv("YOUTUBE_API_KEYS"); v != "" {
		keys = splitList(v)
	}
	C.YouTube.APIKeys = normalizeKeys(append(keys, C.YouTube.APIKey)...)

	C.YouTube.Client = strings.ToLower(strings.TrimSpace(C.YouTube.Client))
	if C.YouTube.Client != YouTubeClientSDK {
		C.YouTube.Client = YouTubeClientREST
	}
	C.YouTube.BaseURL = strings.TrimRight(C.YouTube.BaseURL, "/")
	if C.YouTube.RequestTimeout <= 0 {
		C.YouTube.RequestTimeout = 10 * time.Second
	}
}

// normalizeKeys trims, drops empties and "YOUR_..." placeholders, and removes duplicates
// while keeping first-seen order.
func normalizeKeys(raw ...string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.Trim(strings.TrimSpace(k), "\"'")
		if k == "" || strings.HasPrefix(k, "YOUR_") {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
