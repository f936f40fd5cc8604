package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/anima/internal/models"
)

// HistoryQuery filters paginated history listings.
type HistoryQuery struct {
	Page     int
	PageSize int
	Emotion  string
	Favorite *bool
}

func (q HistoryQuery) encode() string {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", fmt.Sprintf("%d", q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", fmt.Sprintf("%d", q.PageSize))
	}
	if q.Emotion != "" {
		values.Set("emotion", q.Emotion)
	}
	if q.Favorite != nil {
		values.Set("is_favorite", fmt.Sprintf("%t", *q.Favorite))
	}

	if encoded := values.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

// PlaylistPage is one page of saved playlists.
type PlaylistPage struct {
	Items    []models.Playlist `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// AnalysisPage is one page of stored analyses.
type AnalysisPage struct {
	Items    []models.Analysis `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// PlaylistPatch carries partial playlist updates.
type PlaylistPatch struct {
	PlaylistName *string `json:"playlist_name,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsFavorite   *bool   `json:"is_favorite,omitempty"`
}

// HistoryService wraps the playlist/analysis history endpoints.
//
// Every method returns a [Result]; failures carry the backend's detail
// message when one is present.
type HistoryService struct {
	client *Client
}

// NewHistoryService creates a history service over the given client.
func NewHistoryService(client *Client) *HistoryService {
	return &HistoryService{client: client}
}

// SavePlaylist stores a playlist in the user's history.
func (s *HistoryService) SavePlaylist(ctx context.Context, pending *models.PendingPlaylistSave) Result[models.Playlist] {
	var saved models.Playlist
	if err := s.client.Post(ctx, "/api/history/playlists", pending, &saved); err != nil {
		return failFrom[models.Playlist](err, "")
	}
	return Ok(saved)
}

// Playlists lists saved playlists with optional filters.
func (s *HistoryService) Playlists(ctx context.Context, query HistoryQuery) Result[PlaylistPage] {
	var page PlaylistPage
	if err := s.client.Get(ctx, "/api/history/playlists"+query.encode(), &page); err != nil {
		return failFrom[PlaylistPage](err, "")
	}
	return Ok(page)
}

// Playlist fetches a single saved playlist.
func (s *HistoryService) Playlist(ctx context.Context, id string) Result[models.Playlist] {
	var playlist models.Playlist
	if err := s.client.Get(ctx, "/api/history/playlists/"+url.PathEscape(id), &playlist); err != nil {
		return failFrom[models.Playlist](err, "")
	}
	return Ok(playlist)
}

// UpdatePlaylist applies a partial update to a saved playlist.
func (s *HistoryService) UpdatePlaylist(ctx context.Context, id string, patch PlaylistPatch) Result[models.Playlist] {
	var updated models.Playlist
	if err := s.client.Patch(ctx, "/api/history/playlists/"+url.PathEscape(id), patch, &updated); err != nil {
		return failFrom[models.Playlist](err, "")
	}
	return Ok(updated)
}

// DeletePlaylist removes a saved playlist.
func (s *HistoryService) DeletePlaylist(ctx context.Context, id string) Result[struct{}] {
	if err := s.client.Delete(ctx, "/api/history/playlists/"+url.PathEscape(id), nil); err != nil {
		return failFrom[struct{}](err, "")
	}
	return Ok(struct{}{})
}

// Analyses lists stored emotion analyses.
func (s *HistoryService) Analyses(ctx context.Context, query HistoryQuery) Result[AnalysisPage] {
	var page AnalysisPage
	if err := s.client.Get(ctx, "/api/history/analyses"+query.encode(), &page); err != nil {
		return failFrom[AnalysisPage](err, "")
	}
	return Ok(page)
}

// Stats fetches the aggregate dashboard numbers.
func (s *HistoryService) Stats(ctx context.Context) Result[models.Stats] {
	var stats models.Stats
	if err := s.client.Get(ctx, "/api/history/stats", &stats); err != nil {
		return failFrom[models.Stats](err, "")
	}
	return Ok(stats)
}
