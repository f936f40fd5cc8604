package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/anima/internal/models"
)

func samplePlaylist() *models.Playlist {
	return &models.Playlist{
		ID:           "p1",
		PlaylistName: "Calm afternoon",
		Description:  "for rainy days",
		Emotion:      "CALM",
		IsFavorite:   true,
		SpotifyURL:   "https://open.spotify.com/playlist/p1",
		Tracks: []models.PlaylistTrack{
			{ID: "t1", Name: "Song One", Artist: "Artist One", URI: "spotify:track:t1"},
			{ID: "t2", Name: "Song Two", Artist: "Artist Two", URI: "spotify:track:t2"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Artist,URI") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Song One") || !strings.Contains(output, "Artist Two") {
			t.Errorf("CSV missing track data, got: %s", output)
		}
		if !strings.Contains(output, "spotify:track:t1") {
			t.Errorf("CSV missing track URI")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Calm afternoon") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Emotion**: Calm") {
			t.Errorf("Markdown missing emotion line")
		}
		if !strings.Contains(output, "**Favorite**: ★") {
			t.Errorf("Markdown missing favorite marker")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Markdown missing track list")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Calm afternoon") {
			t.Errorf("text missing title, got: %s", output)
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("text missing track count")
		}
	})

	t.Run("AnalysesToCSV", func(t *testing.T) {
		analyses := []models.Analysis{
			{ID: "a1", Emotion: "HAPPY", CreatedAt: "2025-04-01T10:00:00Z"},
			{ID: "a2", Emotion: "SAD", CreatedAt: "2025-04-02T10:00:00Z"},
		}

		data, err := AnalysesToCSV(analyses)
		if err != nil {
			t.Fatalf("AnalysesToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Emotion,CreatedAt") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "HAPPY") || !strings.Contains(output, "a2") {
			t.Errorf("CSV missing rows, got: %s", output)
		}
	})
}

func TestExport(t *testing.T) {
	playlist := samplePlaylist()

	for _, format := range []string{"csv", "markdown", "md", "text", "txt"} {
		if _, err := Export(playlist, format); err != nil {
			t.Errorf("format %q failed: %v", format, err)
		}
	}

	if _, err := Export(playlist, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
