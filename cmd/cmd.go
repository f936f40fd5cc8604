// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles account authentication against the backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Ánima account session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with username/email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Username or email",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:    "status",
				Aliases: []string{"whoami"},
				Usage:   "Show the current session",
				Action:  r.AuthStatus,
			},
			{
				Name:  "forgot-password",
				Usage: "Email a password reset code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: r.AuthForgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Redeem a reset code for a new password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "code", Usage: "The emailed reset code", Required: true},
					&cli.StringFlag{Name: "password", Usage: "New password (prompted when omitted)"},
				},
				Action: r.AuthResetPassword,
			},
		},
	}
}

// spotifyCommand handles the Spotify OAuth flows and playlist operations.
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify sign-in, linking, and playlists",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in or register through Spotify OAuth",
				Action: r.SpotifyLogin,
			},
			{
				Name:    "connect",
				Aliases: []string{"link"},
				Usage:   "Link Spotify to the current account",
				Action:  r.SpotifyConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Unlink the Spotify account",
				Action: r.SpotifyDisconnect,
			},
			{
				Name:  "create",
				Usage: "Create a playlist in your Spotify account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringSliceFlag{
						Name:  "track",
						Usage: "Track ID to include (repeatable)",
					},
					&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
				},
				Action: r.SpotifyCreate,
			},
			{
				Name:  "playlists",
				Usage: "List your Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}

// profileCommand handles account profile operations.
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and update your profile",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the server-confirmed profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "picture", Usage: "Profile picture URL"},
				},
				Action: r.ProfileUpdate,
			},
		},
	}
}

// analyzeCommand uploads a photo for emotion analysis.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a photo and get playlist recommendations",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "image",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the recommended playlist to your history",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for the saved playlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Analyze,
	}
}

// historyCommand handles saved playlists, past analyses, and stats.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "Browse saved playlists and past analyses",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List saved playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 20},
					&cli.StringFlag{Name: "emotion", Usage: "Filter by emotion"},
					&cli.BoolFlag{Name: "favorites", Usage: "Only favorites"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.HistoryPlaylists,
			},
			{
				Name:  "analyses",
				Usage: "List past emotion analyses",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 20},
					&cli.StringFlag{Name: "emotion", Usage: "Filter by emotion"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Export the page to a CSV file",
					},
				},
				Action: r.HistoryAnalyses,
			},
			{
				Name:   "stats",
				Usage:  "Show aggregate analysis stats",
				Action: r.HistoryStats,
			},
			{
				Name:  "show",
				Usage: "Show one saved playlist with its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "favorite",
				Usage: "Toggle a playlist's favorite flag",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryFavorite,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:   "sync",
				Usage:  "Complete a playlist save deferred until Spotify was linked",
				Action: r.HistorySync,
			},
			{
				Name:  "export",
				Usage: "Export a saved playlist to a file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, or text",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// setupCommand initializes configuration and the local session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the local session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive history browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive history browser",
		Action:  r.TUI,
	}
}
