// package tasks orchestrates deferred playlist persistence
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
)

// HistorySaver saves playlists into the user's Ánima history.
type HistorySaver interface {
	SavePlaylist(ctx context.Context, pending *models.PendingPlaylistSave) services.Result[models.Playlist]
}

// PlaylistCreator creates playlists directly in the user's Spotify account.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, req services.CreatePlaylistRequest) services.Result[services.SpotifyPlaylist]
}

// PendingOutcome reports what happened to a deferred playlist save.
type PendingOutcome struct {
	Processed bool // a pending record existed and was acted on

	Saved     *models.Playlist // the history record, when the save succeeded
	SaveError string           // set when the save failed; the record is retained for retry

	Created     *services.SpotifyPlaylist // the Spotify playlist, when creation was attempted and succeeded
	CreateError string                    // set when Spotify creation failed; the local save is not rolled back
}

// PendingEngine completes playlist saves that were deferred until the user's
// account had a Spotify link.
//
// The ordering is deliberate: save into Ánima first, only then mirror to
// Spotify. A failed save keeps the pending record so the user can retry; a
// failed Spotify creation is reported but never undoes the local save.
type PendingEngine struct {
	history store.Store
	saver   HistorySaver
	creator PlaylistCreator
	logger  *log.Logger
}

// NewPendingEngine creates an engine reading pending records from the given
// store.
func NewPendingEngine(s store.Store, saver HistorySaver, creator PlaylistCreator, logger *log.Logger) *PendingEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PendingEngine{history: s, saver: saver, creator: creator, logger: logger}
}

// Process reconciles the pending record, if any, against the given
// server-confirmed user.
//
// The pending record is deleted once the history save succeeds, regardless of
// the Spotify outcome; it is left in place when the save fails.
func (e *PendingEngine) Process(ctx context.Context, user *models.User) (*PendingOutcome, error) {
	pending, err := session.LoadPending(e.history)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return &PendingOutcome{}, nil
	}

	outcome := &PendingOutcome{Processed: true}

	saved := e.saver.SavePlaylist(ctx, pending)
	if !saved.Success {
		e.logger.Warn("failed to save pending playlist", "error", saved.Error)
		outcome.SaveError = saved.Error
		return outcome, nil
	}
	outcome.Saved = &saved.Data

	if user != nil && user.SpotifyConnected {
		created := e.creator.CreatePlaylist(ctx, services.FromPending(pending))
		if created.Success {
			outcome.Created = &created.Data
		} else {
			e.logger.Warn("failed to create playlist on Spotify", "error", created.Error)
			outcome.CreateError = created.Error
		}
	}

	if err := session.DeletePending(e.history); err != nil {
		e.logger.Warn("failed to delete pending playlist save", "error", err)
	}

	return outcome, nil
}
