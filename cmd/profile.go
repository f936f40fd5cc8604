package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProfileShow fetches and prints the server-confirmed profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	user, err := r.sessions.RefreshUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader("Profile")
	r.writePlain("Username: %s\n", user.Username)
	r.writePlain("Email: %s\n", user.Email)
	if user.FirstName != "" || user.LastName != "" {
		r.writePlain("Name: %s %s\n", user.FirstName, user.LastName)
	}
	if user.SpotifyConnected {
		r.writePlain("Spotify: ✓ linked\n")
	} else {
		r.writePlain("Spotify: ✗ not linked\n")
	}
	if user.IsVerified {
		r.writePlain("Verified: ✓\n")
	}
	return nil
}

// ProfileUpdate applies a partial profile update from the given flags.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	patch := services.ProfilePatch{}
	set := false
	if cmd.IsSet("first-name") {
		v := cmd.String("first-name")
		patch.FirstName = &v
		set = true
	}
	if cmd.IsSet("last-name") {
		v := cmd.String("last-name")
		patch.LastName = &v
		set = true
	}
	if cmd.IsSet("email") {
		v := cmd.String("email")
		patch.Email = &v
		set = true
	}
	if cmd.IsSet("picture") {
		v := cmd.String("picture")
		patch.ProfilePicture = &v
		set = true
	}

	if !set {
		return fmt.Errorf("%w: nothing to update, pass at least one field flag", shared.ErrMissingArgument)
	}

	user, err := r.auth.UpdateProfile(ctx, patch)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if err := r.sessions.SetUser(user); err != nil {
		r.logger.Warn("failed to install updated user", "error", err)
	}

	return r.writePlain("✓ Profile updated\n")
}
