package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/anima/internal/callback"
	"github.com/desertthunder/anima/internal/server"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/urfave/cli/v3"
)

// termNavigator adapts callback navigation to the terminal: routes become
// messages, and a reload becomes a rehydration from the stored session.
type termNavigator struct {
	runner   *Runner
	sessions *session.Manager
}

func (n termNavigator) Navigate(route, notice string) {
	if notice != "" {
		n.runner.writePlain("%s\n", notice)
	}
}

func (n termNavigator) Reload(route string) {
	n.sessions.Load()
	n.runner.writePlain("Session refreshed from stored state\n")
}

// doOAuth opens the browser at authURL and runs a local HTTP server until
// the redirect lands, resolving it through the callback flow.
func (r *Runner) doOAuth(ctx context.Context, authURL string) (callback.Outcome, error) {
	flow := callback.NewFlow(r.markers, r.auth, r.sessions, r.engine, termNavigator{runner: r, sessions: r.sessions}, r.logger)
	handler := server.NewCallbackHandler(flow)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var outcome callback.Outcome

	select {
	case outcome = <-handler.Result():
		// Got the redirect
	case err := <-serverErrors:
		return callback.Outcome{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return callback.Outcome{}, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	return outcome, nil
}

// SpotifyLogin signs in or registers through Spotify OAuth.
func (r *Runner) SpotifyLogin(ctx context.Context, cmd *cli.Command) error {
	authURL, err := r.auth.SpotifyAuthURL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	outcome, err := r.doOAuth(ctx, authURL)
	if err != nil {
		return err
	}

	if outcome.Route != callback.RouteHome {
		return fmt.Errorf("%w: Spotify sign-in did not complete", shared.ErrAuthFailed)
	}

	if user := r.sessions.User(); user != nil {
		r.writePlain("✓ Logged in as %s\n", user.Username)
	} else {
		r.writePlain("✓ Logged in\n")
	}
	return nil
}

// SpotifyConnect links Spotify to the current account, completing any
// playlist save that was deferred until linking.
func (r *Runner) SpotifyConnect(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	linkURL, err := r.auth.SpotifyLinkURL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	outcome, err := r.doOAuth(ctx, linkURL)
	if err != nil {
		return err
	}

	if outcome.Route != callback.RouteHome {
		return fmt.Errorf("%w: linking did not complete", shared.ErrAuthFailed)
	}

	if outcome.Pending != nil && outcome.Pending.Processed {
		switch {
		case outcome.Pending.SaveError != "":
			r.writePlain("⚠ Deferred playlist save failed: %s\n", outcome.Pending.SaveError)
			r.writePlain("Run 'anima history sync' to retry\n")
		case outcome.Pending.Saved != nil:
			r.writePlain("✓ Deferred playlist %q saved to your history\n", outcome.Pending.Saved.PlaylistName)
			if outcome.Pending.Created != nil {
				r.writePlain("✓ Created on Spotify as well\n")
			} else if outcome.Pending.CreateError != "" {
				r.writePlain("⚠ Could not create it on Spotify: %s\n", outcome.Pending.CreateError)
			}
		}
	}

	return r.writePlain("✓ Spotify account linked\n")
}

// SpotifyDisconnect unlinks the Spotify account.
func (r *Runner) SpotifyDisconnect(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	if err := r.auth.DisconnectSpotify(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if _, err := r.sessions.RefreshUser(ctx); err != nil {
		r.logger.Warn("failed to refresh user after disconnect", "error", err)
	}

	return r.writePlain("✓ Spotify account disconnected\n")
}

// SpotifyCreate creates a playlist directly in the user's Spotify account.
func (r *Runner) SpotifyCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	req := services.CreatePlaylistRequest{
		Name:        name,
		Description: cmd.String("description"),
		Tracks:      cmd.StringSlice("track"),
		Public:      cmd.Bool("public"),
	}

	result := r.spotify.CreatePlaylist(ctx, req)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	r.writePlain("✓ Created playlist %q on Spotify\n", result.Data.Name)
	if result.Data.URL != "" {
		r.writePlain("  %s\n", result.Data.URL)
	}
	return nil
}

// SpotifyPlaylists lists the user's Spotify playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	result := r.spotify.UserPlaylists(ctx, int(limit))
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Data, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Spotify Playlists")
	if len(result.Data) == 0 {
		return r.writePlain("No playlists found\n")
	}
	for i, playlist := range result.Data {
		r.writePlain("%d. %s (%d tracks)\n", i+1, playlist.Name, playlist.TrackCount)
		if playlist.Description != "" {
			r.writePlain("   %s\n", playlist.Description)
		}
	}
	return nil
}
