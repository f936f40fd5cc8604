// package formatter exports saved playlists and analyses to CSV, Markdown, and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
)

// ExportToCSV converts a saved playlist to CSV with columns: ID, Name, Artist, URI
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{
			track.ID,
			track.Name,
			track.Artist,
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a saved playlist to Markdown.
func ExportToMarkdown(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.PlaylistName))

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}
	if playlist.Emotion != "" {
		buf.WriteString(fmt.Sprintf("**Emotion**: %s %s\n", services.Label(playlist.Emotion), services.Emoji(playlist.Emotion)))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(playlist.Tracks)))
	if playlist.IsFavorite {
		buf.WriteString("**Favorite**: ★\n")
	}
	if playlist.SpotifyURL != "" {
		buf.WriteString(fmt.Sprintf("**Spotify**: %s\n", playlist.SpotifyURL))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a saved playlist to plain text.
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.PlaylistName))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	if playlist.Emotion != "" {
		buf.WriteString(fmt.Sprintf("Emotion: %s\n", services.Label(playlist.Emotion)))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(playlist.Tracks)))

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// AnalysesToCSV converts stored analyses to CSV with columns: ID, Emotion, CreatedAt
func AnalysesToCSV(analyses []models.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Emotion", "CreatedAt"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, analysis := range analyses {
		if err := writer.Write([]string{analysis.ID, analysis.Emotion, analysis.CreatedAt}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Export renders a playlist in the named format: "csv", "markdown" (or
// "md"), or "text".
func Export(playlist *models.Playlist, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(playlist)
	case "markdown", "md":
		return ExportToMarkdown(playlist)
	case "text", "txt":
		return ExportToText(playlist)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
