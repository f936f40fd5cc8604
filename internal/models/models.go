// package models defines the data model for the Ánima client
package models

// User is the account record returned by the Ánima backend.
//
// The backend owns the schema; the client treats unknown fields as opaque and
// never validates beyond presence.
type User struct {
	ID               string `json:"id,omitempty"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	SpotifyConnected bool   `json:"spotify_connected"`
	IsVerified       bool   `json:"is_verified"`
	ProfilePicture   string `json:"profile_picture,omitempty"`
}

// Session pairs an access token with the user it identifies.
//
// Token and user are written and cleared together under normal flow; a token
// without a freshly fetched user is tolerated transiently (direct-token OAuth
// callbacks persist the token before the user record arrives).
type Session struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
}

// PendingTrack is a track reference inside a deferred playlist save.
type PendingTrack struct {
	ID string `json:"id"`
}

// PendingPlaylistSave is a playlist the user asked to save before their
// account was linked to Spotify. It is created before redirecting to the
// authorization flow and consumed once linking completes.
type PendingPlaylistSave struct {
	PlaylistName string         `json:"playlist_name"`
	Description  string         `json:"description,omitempty"`
	Tracks       []PendingTrack `json:"tracks"`
}

// TrackIDs returns the non-empty track identifiers from the pending record.
func (p *PendingPlaylistSave) TrackIDs() []string {
	ids := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// EmotionScore is a single detected emotion with its confidence.
type EmotionScore struct {
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
}

// Analysis is one stored emotion-analysis result.
type Analysis struct {
	ID        string         `json:"id"`
	Emotion   string         `json:"emotion"`
	Emotions  []EmotionScore `json:"emotions,omitempty"`
	ImageURL  string         `json:"image_url,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// PlaylistTrack is a track within a saved playlist.
type PlaylistTrack struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Artist string `json:"artist,omitempty"`
	URI    string `json:"uri,omitempty"`
}

// Playlist is a playlist saved in the user's Ánima history.
type Playlist struct {
	ID           string          `json:"id"`
	PlaylistName string          `json:"playlist_name"`
	Description  string          `json:"description,omitempty"`
	Emotion      string          `json:"emotion,omitempty"`
	IsFavorite   bool            `json:"is_favorite"`
	Tracks       []PlaylistTrack `json:"tracks,omitempty"`
	SpotifyURL   string          `json:"spotify_url,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

// Stats aggregates a user's analysis history for the dashboard.
type Stats struct {
	TotalAnalyses  int            `json:"total_analyses"`
	TotalPlaylists int            `json:"total_playlists"`
	EmotionCounts  map[string]int `json:"emotion_counts,omitempty"`
	TopEmotion     string         `json:"top_emotion,omitempty"`
}

// Recommendation is a suggested track returned by the analysis endpoint.
type Recommendation struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	URI    string `json:"uri,omitempty"`
}

// AnalysisResult is the response of the emotion-analysis endpoint: detected
// emotions plus playlist recommendations keyed off the dominant one.
type AnalysisResult struct {
	Emotions        []EmotionScore   `json:"emotions"`
	DominantEmotion string           `json:"dominant_emotion,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	AnalysisID      string           `json:"analysis_id,omitempty"`
}

// Dominant returns the highest scoring emotion, preferring the backend's own
// dominant_emotion field when set.
func (a *AnalysisResult) Dominant() string {
	if a.DominantEmotion != "" {
		return a.DominantEmotion
	}
	best := ""
	bestScore := -1.0
	for _, e := range a.Emotions {
		if e.Score > bestScore {
			best = e.Emotion
			bestScore = e.Score
		}
	}
	return best
}
