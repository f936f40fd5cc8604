package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
	tu "github.com/desertthunder/anima/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner wires a runner against a route-dispatching test server with
// an in-memory session store.
func newTestRunner(t *testing.T, routes map[string]http.HandlerFunc) (*Runner, *bytes.Buffer, *store.MemoryStore) {
	t.Helper()

	srv := tu.RouteServer(t, routes)
	kv := store.NewMemoryStore()
	client := services.NewClient(srv.URL, kv, srv.Client(), 5*time.Second)
	auth := services.NewAuthService(client, kv, shared.NewLogger(&bytes.Buffer{}))
	manager := session.NewManager(auth, kv, shared.NewLogger(&bytes.Buffer{}))
	manager.Load()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:   shared.DefaultConfig(),
		Auth:     auth,
		History:  services.NewHistoryService(client),
		Spotify:  services.NewSpotifyService(client),
		Emotion:  services.NewEmotionService(client),
		Sessions: manager,
		Store:    kv,
		Logger:   shared.NewLogger(&bytes.Buffer{}),
		Output:   output,
	})
	return runner, output, kv
}

// run executes a CLI invocation against the runner's registered commands.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "anima", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"anima"}, args...))
}

// loginAs seeds the store with a session, as a completed login would.
func loginAs(t *testing.T, kv *store.MemoryStore, r *Runner, user models.User) {
	t.Helper()
	kv.Set(store.KeyToken, "tkn-test")
	data, err := json.Marshal(user)
	if err != nil {
		t.Fatal(err)
	}
	kv.Set(store.KeyUser, string(data))
	r.sessions.Load()
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil options uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if runner.config == nil {
			t.Error("expected default config to be set")
		}
		if runner.logger == nil {
			t.Error("expected default logger to be set")
		}
		if runner.output != os.Stdout {
			t.Error("expected output to default to os.Stdout")
		}
		if runner.kv == nil || runner.markers == nil {
			t.Error("expected stores to be set")
		}
		if runner.engine == nil {
			t.Error("expected pending engine to be set")
		}
	})

	t.Run("marker store is never the durable store", func(t *testing.T) {
		kv := store.NewMemoryStore()
		runner := NewRunner(RunnerOpts{Store: kv})
		if runner.markers == store.Store(kv) {
			t.Error("markers must be process-scoped, separate from the durable store")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login persists the session and greets the user", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/auth/login": tu.JSONHandler(t, http.StatusOK, map[string]any{
				"access_token": "tkn-123",
				"user":         map[string]any{"username": "maya", "spotify_connected": false},
			}),
		})

		if err := run(t, runner, "auth", "login", "--user", "maya", "--password", "pw"); err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(output.String(), "Logged in as maya") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "spotify connect") {
			t.Error("expected the linking tip for an unlinked account")
		}
		if token, _ := kv.Get(store.KeyToken); token != "tkn-123" {
			t.Errorf("expected token persisted, got %q", token)
		}
	})

	t.Run("login failure surfaces the backend message", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/auth/login": tu.JSONHandler(t, http.StatusUnauthorized, map[string]string{"detail": "wrong password"}),
		})

		err := run(t, runner, "auth", "login", "--user", "maya", "--password", "bad")
		if err == nil || !strings.Contains(err.Error(), "wrong password") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("status with no session reports logged out", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]http.HandlerFunc{})

		if err := run(t, runner, "auth", "status"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Not logged in") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("logout clears the stored session", func(t *testing.T) {
		runner, _, kv := newTestRunner(t, map[string]http.HandlerFunc{})
		loginAs(t, kv, runner, models.User{Username: "maya"})

		if err := run(t, runner, "auth", "logout"); err != nil {
			t.Fatal(err)
		}
		if kv.Len() != 0 {
			t.Errorf("expected an empty store, %d keys remain", kv.Len())
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("playlists renders the listing", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/history/playlists": tu.JSONHandler(t, http.StatusOK, services.PlaylistPage{
				Items: []models.Playlist{
					{ID: "p1", PlaylistName: "Calm afternoon", Emotion: "CALM", IsFavorite: true},
				},
				Total: 1,
				Page:  1,
			}),
		})
		loginAs(t, kv, runner, models.User{Username: "maya"})

		if err := run(t, runner, "history", "playlists"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Calm afternoon") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "★") {
			t.Error("expected the favorite marker")
		}
	})

	t.Run("commands refuse to run logged out", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, map[string]http.HandlerFunc{})

		err := run(t, runner, "history", "playlists")
		if err == nil || !strings.Contains(err.Error(), "auth login") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("sync with nothing pending is a no-op", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/auth/me": tu.JSONHandler(t, http.StatusOK, models.User{Username: "maya", SpotifyConnected: true}),
		})
		loginAs(t, kv, runner, models.User{Username: "maya"})

		if err := run(t, runner, "history", "sync"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Nothing to sync") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("sync completes a deferred save", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/auth/me": tu.JSONHandler(t, http.StatusOK, models.User{Username: "maya", SpotifyConnected: true}),
			"/api/history/playlists": tu.JSONHandler(t, http.StatusOK, models.Playlist{
				ID: "p1", PlaylistName: "Calm afternoon",
			}),
			"/api/spotify/playlists": tu.JSONHandler(t, http.StatusOK, services.SpotifyPlaylist{ID: "sp1"}),
		})
		loginAs(t, kv, runner, models.User{Username: "maya", SpotifyConnected: true})
		if err := session.StorePending(kv, &models.PendingPlaylistSave{
			PlaylistName: "Calm afternoon",
			Tracks:       []models.PendingTrack{{ID: "t1"}},
		}); err != nil {
			t.Fatal(err)
		}

		if err := run(t, runner, "history", "sync"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "saved to your history") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if got, _ := session.LoadPending(kv); got != nil {
			t.Error("expected the pending record consumed")
		}
	})

	t.Run("export writes the chosen format", func(t *testing.T) {
		runner, _, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/history/playlists/p1": tu.JSONHandler(t, http.StatusOK, models.Playlist{
				ID: "p1", PlaylistName: "Calm afternoon",
				Tracks: []models.PlaylistTrack{{ID: "t1", Name: "Song", Artist: "Artist"}},
			}),
		})
		loginAs(t, kv, runner, models.User{Username: "maya"})

		outputFile := filepath.Join(t.TempDir(), "out.md")
		if err := run(t, runner, "history", "export", "p1", "--format", "markdown", "-o", outputFile); err != nil {
			t.Fatal(err)
		}

		tu.AssertFileExists(t, outputFile)
		content := tu.MustReadFile(t, outputFile)
		if !strings.Contains(content, "# Calm afternoon") {
			t.Errorf("unexpected export content: %s", content)
		}
	})
}

func TestAnalyzeCommand(t *testing.T) {
	imageFor := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "face.jpg")
		if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	analysis := models.AnalysisResult{
		Emotions:        []models.EmotionScore{{Emotion: "HAPPY", Score: 0.92}},
		DominantEmotion: "HAPPY",
		Recommendations: []models.Recommendation{{ID: "t1", Name: "Song", Artist: "Artist"}},
	}

	t.Run("prints the detected emotion and recommendations", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/emotions/analyze": tu.JSONHandler(t, http.StatusOK, analysis),
		})
		loginAs(t, kv, runner, models.User{Username: "maya"})

		if err := run(t, runner, "analyze", imageFor(t)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Happy") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "Artist - Song") {
			t.Error("expected the recommendations listed")
		}
	})

	t.Run("save without a Spotify link defers the playlist", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/emotions/analyze": tu.JSONHandler(t, http.StatusOK, analysis),
		})
		loginAs(t, kv, runner, models.User{Username: "maya", SpotifyConnected: false})

		if err := run(t, runner, "analyze", imageFor(t), "--save"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "deferred") {
			t.Errorf("unexpected output: %s", output.String())
		}

		pending, err := session.LoadPending(kv)
		if err != nil || pending == nil {
			t.Fatalf("expected a pending record, got %+v, %v", pending, err)
		}
		if len(pending.Tracks) != 1 || pending.Tracks[0].ID != "t1" {
			t.Errorf("unexpected pending tracks: %+v", pending.Tracks)
		}
	})

	t.Run("save with a linked account goes straight to history", func(t *testing.T) {
		runner, output, kv := newTestRunner(t, map[string]http.HandlerFunc{
			"/api/emotions/analyze": tu.JSONHandler(t, http.StatusOK, analysis),
			"/api/history/playlists": tu.JSONHandler(t, http.StatusOK, models.Playlist{
				ID: "p1", PlaylistName: "Happy playlist",
			}),
		})
		loginAs(t, kv, runner, models.User{Username: "maya", SpotifyConnected: true})

		if err := run(t, runner, "analyze", imageFor(t), "--save"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "saved to your history") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if pending, _ := session.LoadPending(kv); pending != nil {
			t.Error("no pending record should exist for a direct save")
		}
	})
}
