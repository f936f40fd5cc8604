package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/urfave/cli/v3"
)

// promptLine reads one line from stdin after printing the prompt. Used for
// credentials omitted from the flags.
func (r *Runner) promptLine(prompt string) (string, error) {
	r.writePlain("%s: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AuthLogin authenticates with username/email and password and persists the
// session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	user := cmd.String("user")
	password := cmd.String("password")

	var err error
	if user == "" {
		if user, err = r.promptLine("Username or email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = r.promptLine("Password"); err != nil {
			return err
		}
	}
	if user == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	result := r.sessions.Login(ctx, services.Credentials{UsernameOrEmail: user, Password: password})
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Error)
	}

	current := r.sessions.User()
	r.writePlain("✓ Logged in as %s\n", current.Username)
	if !current.SpotifyConnected {
		r.writePlain("Tip: run 'anima spotify connect' to link your Spotify account\n")
	}
	return nil
}

// AuthRegister creates an account. Registering does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")

	var err error
	if password == "" {
		if password, err = r.promptLine("Password"); err != nil {
			return err
		}
	}

	payload := services.Registration{
		Username:  cmd.String("username"),
		Email:     cmd.String("email"),
		Password:  password,
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}

	result := r.sessions.Register(ctx, payload)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Error)
	}

	r.writePlain("✓ Account created for %s\n", payload.Username)
	r.writePlain("Run 'anima auth login' to sign in\n")
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.sessions.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus shows the stored session, refreshing against the backend when a
// token is present.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.sessions.Token() == "" {
		return r.writePlain("✗ Not logged in\n")
	}

	user, err := r.sessions.RefreshUser(ctx)
	if err != nil {
		r.logger.Warn("could not verify session against the backend", "error", err)
		return r.writePlain("⚠ Stored session could not be verified: %v\n", err)
	}

	r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Email)
	if user.SpotifyConnected {
		r.writePlain("Spotify: ✓ linked\n")
	} else {
		r.writePlain("Spotify: ✗ not linked\n")
	}
	return nil
}

// AuthForgotPassword asks the backend to email a reset code.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")

	result, err := r.auth.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	r.writePlain("✓ Reset code sent to %s\n", email)
	r.writePlain("Run 'anima auth reset-password --email %s --code <code>' once it arrives\n", email)
	return nil
}

// AuthResetPassword redeems an emailed code for a new password.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")

	var err error
	if password == "" {
		if password, err = r.promptLine("New password"); err != nil {
			return err
		}
	}

	req := services.PasswordReset{
		Email:       cmd.String("email"),
		Code:        cmd.String("code"),
		NewPassword: password,
	}

	result, err := r.auth.ResetPassword(ctx, req)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	return r.writePlain("✓ Password changed, you can log in now\n")
}
