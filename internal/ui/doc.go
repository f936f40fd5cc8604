// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing saved playlists:
//  1. [PlaylistListView] : Browse saved playlists with favorite markers
//  2. [TrackListView] : Inspect a playlist's tracks
//  3. [ConfirmDeleteView] : Confirm playlist deletion
//  4. [StatsView] : Aggregate analysis stats
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// History calls run as tea commands, so the interface stays responsive while requests are in flight.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, f, d, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
