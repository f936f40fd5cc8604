package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/anima/internal/formatter"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryPlaylists lists saved playlists with optional filters.
func (r *Runner) HistoryPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	query := services.HistoryQuery{
		Page:     int(cmd.Int("page")),
		PageSize: int(cmd.Int("page-size")),
		Emotion:  strings.ToUpper(cmd.String("emotion")),
	}
	if cmd.Bool("favorites") {
		fav := true
		query.Favorite = &fav
	}

	result := r.history.Playlists(ctx, query)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Data, cmd.Bool("pretty"))
	}

	page := result.Data
	r.writePlainHeader("Saved Playlists")
	if len(page.Items) == 0 {
		return r.writePlain("No playlists found\n")
	}

	for i, playlist := range page.Items {
		marker := " "
		if playlist.IsFavorite {
			marker = "★"
		}
		r.writePlain("%s %d. %s", marker, i+1, playlist.PlaylistName)
		if playlist.Emotion != "" {
			r.writePlain(" [%s %s]", services.Label(playlist.Emotion), services.Emoji(playlist.Emotion))
		}
		r.writePlain(" (%d tracks)\n", len(playlist.Tracks))
		r.writePlain("   id: %s\n", playlist.ID)
	}
	if page.Total > 0 {
		r.writePlain("\nPage %d, %d total\n", page.Page, page.Total)
	}
	return nil
}

// HistoryAnalyses lists past emotion analyses.
func (r *Runner) HistoryAnalyses(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	query := services.HistoryQuery{
		Page:     int(cmd.Int("page")),
		PageSize: int(cmd.Int("page-size")),
		Emotion:  strings.ToUpper(cmd.String("emotion")),
	}

	result := r.history.Analyses(ctx, query)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		data, err := formatter.AnalysesToCSV(result.Data.Items)
		if err != nil {
			return fmt.Errorf("failed to format analyses: %w", err)
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return r.writePlain("✓ Analyses exported to %s\n", outputFile)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Data, cmd.Bool("pretty"))
	}

	page := result.Data
	r.writePlainHeader("Past Analyses")
	if len(page.Items) == 0 {
		return r.writePlain("No analyses found\n")
	}

	for i, analysis := range page.Items {
		r.writePlain("%d. %s %s", i+1, services.Label(analysis.Emotion), services.Emoji(analysis.Emotion))
		if analysis.CreatedAt != "" {
			r.writePlain(" (%s)", analysis.CreatedAt)
		}
		r.writePlain("\n")
	}
	return nil
}

// HistoryStats shows aggregate analysis stats.
func (r *Runner) HistoryStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	result := r.history.Stats(ctx)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	stats := result.Data
	r.writePlainHeader("Your Stats")
	r.writePlain("Analyses: %d\n", stats.TotalAnalyses)
	r.writePlain("Playlists: %d\n", stats.TotalPlaylists)
	if stats.TopEmotion != "" {
		r.writePlain("Most frequent emotion: %s %s\n", services.Label(stats.TopEmotion), services.Emoji(stats.TopEmotion))
	}
	for emotion, count := range stats.EmotionCounts {
		r.writePlain("  %s: %d\n", services.Label(emotion), count)
	}
	return nil
}

// HistoryShow prints one saved playlist with its tracks.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	result := r.history.Playlist(ctx, id)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	playlist := result.Data
	r.writePlainHeader(playlist.PlaylistName)
	if playlist.Description != "" {
		r.writePlain("%s\n", playlist.Description)
	}
	if playlist.Emotion != "" {
		r.writePlain("Emotion: %s %s\n", services.Label(playlist.Emotion), services.Emoji(playlist.Emotion))
	}
	if playlist.SpotifyURL != "" {
		r.writePlain("Spotify: %s\n", playlist.SpotifyURL)
	}
	r.writePlain("\n")
	for i, track := range playlist.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Name)
	}
	return nil
}

// HistoryFavorite toggles a playlist's favorite flag.
func (r *Runner) HistoryFavorite(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	current := r.history.Playlist(ctx, id)
	if !current.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, current.Error)
	}

	toggled := !current.Data.IsFavorite
	result := r.history.UpdatePlaylist(ctx, id, services.PlaylistPatch{IsFavorite: &toggled})
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	if toggled {
		return r.writePlain("★ %s marked as favorite\n", result.Data.PlaylistName)
	}
	return r.writePlain("☆ %s removed from favorites\n", result.Data.PlaylistName)
}

// HistoryDelete removes a saved playlist.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	result := r.history.DeletePlaylist(ctx, id)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	return r.writePlain("✓ Playlist deleted\n")
}

// HistorySync completes a playlist save that was deferred until the account
// had a Spotify link.
func (r *Runner) HistorySync(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	user, err := r.sessions.RefreshUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	outcome, err := r.engine.Process(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to process the deferred save: %w", err)
	}

	if !outcome.Processed {
		return r.writePlain("Nothing to sync\n")
	}
	if outcome.SaveError != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, outcome.SaveError)
	}

	r.writePlain("✓ Playlist %q saved to your history\n", outcome.Saved.PlaylistName)
	if outcome.Created != nil {
		r.writePlain("✓ Created on Spotify as well\n")
	} else if outcome.CreateError != "" {
		r.writePlain("⚠ Could not create it on Spotify: %s\n", outcome.CreateError)
	}
	return nil
}

// HistoryExport writes a saved playlist to a file in the chosen format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	result := r.history.Playlist(ctx, id)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	format := cmd.String("format")
	data, err := formatter.Export(&result.Data, format)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	outputFile := cmd.String("output")
	if outputFile == "" {
		ext := format
		if format == "markdown" {
			ext = "md"
		}
		outputFile = fmt.Sprintf("anima_%s.%s", result.Data.ID, ext)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.logger.Infof("playlist exported to %v", outputFile)
	return r.writePlain("✓ Playlist exported to %s\n", outputFile)
}
