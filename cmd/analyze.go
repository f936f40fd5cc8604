package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/urfave/cli/v3"
)

// Analyze uploads a photo for emotion detection and prints the detected
// emotions with the recommended tracks.
//
// With --save the recommendations become a playlist in the user's history.
// When the account has no Spotify link yet, the save is deferred: a pending
// record is stored and completed by 'spotify connect' or 'history sync'.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	imagePath := cmd.StringArg("image")
	if imagePath == "" {
		return fmt.Errorf("%w: path to an image is required", shared.ErrMissingArgument)
	}

	r.logger.Info("analyzing image", "path", imagePath)

	result := r.emotion.Analyze(ctx, imagePath)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	analysis := result.Data

	if cmd.Bool("json") && !cmd.Bool("save") {
		return r.writeJSON(analysis, cmd.Bool("pretty"))
	}

	dominant := analysis.Dominant()
	r.writePlainHeader("Emotion Analysis")
	r.writePlain("Detected: %s %s\n", services.Label(dominant), services.Emoji(dominant))
	for _, score := range analysis.Emotions {
		r.writePlain("  %s: %.0f%%\n", services.Label(score.Emotion), score.Score*100)
	}

	if len(analysis.Recommendations) > 0 {
		r.writePlainln("Recommended tracks:")
		for i, track := range analysis.Recommendations {
			r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Name)
		}
	}

	if !cmd.Bool("save") {
		return nil
	}

	name := cmd.String("name")
	if name == "" {
		name = fmt.Sprintf("%s playlist", services.Label(dominant))
	}

	pending := &models.PendingPlaylistSave{
		PlaylistName: name,
		Description:  fmt.Sprintf("Generated from a %s analysis", services.Label(dominant)),
	}
	for _, track := range analysis.Recommendations {
		pending.Tracks = append(pending.Tracks, models.PendingTrack{ID: track.ID})
	}

	user := r.sessions.User()
	if user == nil || !user.SpotifyConnected {
		if err := session.StorePending(r.kv, pending); err != nil {
			return fmt.Errorf("failed to defer the playlist save: %w", err)
		}
		r.writePlainln("⚠ Your account has no Spotify link yet.")
		r.writePlain("The playlist save was deferred. Run 'anima spotify connect' to finish it.\n")
		return nil
	}

	saved := r.history.SavePlaylist(ctx, pending)
	if !saved.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, saved.Error)
	}

	return r.writePlain("✓ Playlist %q saved to your history\n", saved.Data.PlaylistName)
}
