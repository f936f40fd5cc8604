// Package models defines the domain entities consumed by the Ánima client.
//
// The package contains two categories of types:
//
// 1. Session state: records the client owns and persists locally
//   - [Session] : access token + user pair representing a logged-in identity
//   - [PendingPlaylistSave] : a playlist save deferred until Spotify linking completes
//
// 2. Backend resources: shapes returned by the Ánima REST API
//   - [User] : the account record ("who am I")
//   - [Analysis], [AnalysisResult] : emotion-analysis results and recommendations
//   - [Playlist], [PlaylistTrack] : playlists saved in the user's history
//   - [Stats] : aggregate dashboard numbers
//
// Backend resources carry no client-side validation. The backend owns their
// schema and the client renders whatever it receives.
package models
