package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/anima/internal/models"
)

// SpotifyPlaylist is a playlist in the user's Spotify library, proxied
// through the backend.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URL         string `json:"url,omitempty"`
}

// CreatePlaylistRequest creates a playlist directly in the user's Spotify
// account.
type CreatePlaylistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tracks      []string `json:"tracks"`
	Public      bool     `json:"public"`
}

// SpotifyService wraps the backend's Spotify proxy endpoints. All calls
// require a linked account.
type SpotifyService struct {
	client *Client
}

// NewSpotifyService creates a Spotify service over the given client.
func NewSpotifyService(client *Client) *SpotifyService {
	return &SpotifyService{client: client}
}

// UserPlaylists lists the user's Spotify playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit int) Result[[]SpotifyPlaylist] {
	if limit <= 0 {
		limit = 50
	}

	var playlists []SpotifyPlaylist
	path := fmt.Sprintf("/api/spotify/playlists?limit=%d", limit)
	if err := s.client.Get(ctx, path, &playlists); err != nil {
		return failFrom[[]SpotifyPlaylist](err, "")
	}
	return Ok(playlists)
}

// CreatePlaylist creates a playlist in the user's Spotify account.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, req CreatePlaylistRequest) Result[SpotifyPlaylist] {
	var created SpotifyPlaylist
	if err := s.client.Post(ctx, "/api/spotify/playlists", req, &created); err != nil {
		return failFrom[SpotifyPlaylist](err, "")
	}
	return Ok(created)
}

// FromPending builds a creation request from a deferred save, keeping only
// non-empty track identifiers. Playlists created this way stay private.
func FromPending(pending *models.PendingPlaylistSave) CreatePlaylistRequest {
	return CreatePlaylistRequest{
		Name:        pending.PlaylistName,
		Description: pending.Description,
		Tracks:      pending.TrackIDs(),
		Public:      false,
	}
}
