package model

import "time"

// VideoItem is one normalized playlist entry as served to clients and stored in the cache.
type VideoItem struct {
	ID           string `json:"id" bson:"id" dynamodbav:"id"`
	YouTubeID    string `json:"youtubeId" bson:"youtube_id" dynamodbav:"youtube_id"`
	Title        string `json:"title" bson:"title" dynamodbav:"title"`
	ThumbnailURL string `json:"thumbnail" bson:"thumbnail" dynamodbav:"thumbnail"`
	Duration     string `json:"duration" bson:"duration" dynamodbav:"duration"`
}

// CacheRecord is the persisted snapshot of a playlist.
type CacheRecord struct {
	PlaylistID string      `json:"playlistId"`
	Items      []VideoItem `json:"items"`
	FetchedAt  time.Time   `json:"fetchedAt"`
}

// Age returns how old the record is relative to now.
func (r *CacheRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}

// PlaylistSource tags where a PlaylistResult came from.
type PlaylistSource string

const (
	SourceCache    PlaylistSource = "cache"
	SourceYouTube  PlaylistSource = "youtube"
	SourceFallback PlaylistSource = "fallback"
)

// PlaylistResult is the outcome of resolving a playlist id.
type PlaylistResult struct {
	PlaylistID string
	Items      []VideoItem
	Source     PlaylistSource
	// FetchedAt is the cache record timestamp for cache hits and the fetch time for fresh fetches.
	// Zero for fallback results.
	FetchedAt time.Time
	// Pages is the number of upstream pages consumed; zero unless Source is SourceYouTube.
	Pages int
	// Reason describes why a fallback was served.
	Reason string
}

// Cached reports whether the items were served from the cache store.
func (r *PlaylistResult) Cached() bool {
	return r.Source == SourceCache
}

// PlaylistRefreshedEvent is emitted after a fresh fetch is written back to the cache.
type PlaylistRefreshedEvent struct {
	Type       string    `json:"type"`
	PlaylistID string    `json:"playlistId"`
	Total      int       `json:"total"`
	Pages      int       `json:"pages"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

const PlaylistRefreshedType = "playlist_refreshed"

const fallbackYouTubeID = "dQw4w9WgXcQ"

var fallbackVideos = []VideoItem{
	{ID: "video1", YouTubeID: fallbackYouTubeID, Title: "Introduction to the Course", Duration: "10:00"},
	{ID: "video2", YouTubeID: fallbackYouTubeID, Title: "Lesson 1: Getting Started", Duration: "15:30"},
	{ID: "video3", YouTubeID: fallbackYouTubeID, Title: "Lesson 2: Core Concepts", Duration: "12:45"},
	{ID: "video4", YouTubeID: fallbackYouTubeID, Title: "Lesson 3: Advanced Topics", Duration: "18:20"},
	{ID: "video5", YouTubeID: fallbackYouTubeID, Title: "Final Project", Duration: "22:10"},
}

// FallbackVideos returns a fresh copy of the static items served when the upstream is unavailable.
func FallbackVideos() []VideoItem {
	out := make([]VideoItem, len(fallbackVideos))
	for i, v := range fallbackVideos {
		v.ThumbnailURL = ThumbnailURL(v.YouTubeID)
		out[i] = v
	}
	return out
}

// ThumbnailURL derives the high quality thumbnail address for a video id.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}
