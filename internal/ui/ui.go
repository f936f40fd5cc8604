package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmDeleteView
	StatsView
)

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	view             ViewState
	history          *services.HistoryService
	width            int
	height           int
	playlistList     list.Model
	playlists        []models.Playlist
	trackList        list.Model
	selectedPlaylist *models.Playlist
	stats            *models.Stats
	status           string
	err              error
	help             help.Model
	keys             keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	favorite key.Binding
	delete   key.Binding
	stats    key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorite"),
		),
		delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		stats: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stats"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.favorite, k.delete},
		{k.stats, k.quit},
	}
}

// playlistItem wraps [models.Playlist] to implement list.Item.
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.PlaylistName }
func (i playlistItem) Title() string {
	title := i.playlist.PlaylistName
	if i.playlist.IsFavorite {
		title = "★ " + title
	}
	return title
}
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
	if i.playlist.Emotion != "" {
		desc = fmt.Sprintf("%s • %s %s", desc, services.Label(i.playlist.Emotion), services.Emoji(i.playlist.Emotion))
	}
	return desc
}

// trackItem wraps [models.PlaylistTrack] to implement list.Item.
type trackItem struct {
	track models.PlaylistTrack
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string { return i.track.Artist }

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type playlistFetchedMsg struct {
	playlist *models.Playlist
	err      error
}

type playlistUpdatedMsg struct {
	playlist *models.Playlist
	err      error
}

type playlistDeletedMsg struct {
	id  string
	err error
}

type statsFetchedMsg struct {
	stats *models.Stats
	err   error
}

// NewModel creates a new TUI model over the history service.
func NewModel(ctx context.Context, history *services.HistoryService) *Model {
	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		history: history,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the saved playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmDeleteKeys(msg)
		case StatsView:
			return m.handleStatsKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Saved Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case playlistFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selectedPlaylist = msg.playlist
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.PlaylistName)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case playlistUpdatedMsg:
		if msg.err != nil {
			m.status = styles.error.Render(fmt.Sprintf("update failed: %v", msg.err))
			return m, nil
		}
		if msg.playlist.IsFavorite {
			m.status = styles.success.Render(fmt.Sprintf("★ %s marked as favorite", msg.playlist.PlaylistName))
		} else {
			m.status = fmt.Sprintf("☆ %s removed from favorites", msg.playlist.PlaylistName)
		}
		return m, m.fetchPlaylists()

	case playlistDeletedMsg:
		m.view = PlaylistListView
		if msg.err != nil {
			m.status = styles.error.Render(fmt.Sprintf("delete failed: %v", msg.err))
			return m, nil
		}
		m.status = "playlist deleted"
		m.selectedPlaylist = nil
		return m, m.fetchPlaylists()

	case statsFetchedMsg:
		if msg.err != nil {
			m.status = styles.error.Render(fmt.Sprintf("stats unavailable: %v", msg.err))
			m.view = PlaylistListView
			return m, nil
		}
		m.stats = msg.stats
		m.view = StatsView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.error.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmDeleteView:
		return m.renderConfirmDelete()
	case StatsView:
		return m.renderStats()
	default:
		return ""
	}
}

func (m *Model) selected() *models.Playlist {
	item := m.playlistList.SelectedItem()
	if item == nil {
		return nil
	}
	if pl, ok := item.(playlistItem); ok {
		return &pl.playlist
	}
	return nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if pl := m.selected(); pl != nil {
			return m, m.fetchPlaylist(pl.ID)
		}
	case "f":
		if pl := m.selected(); pl != nil {
			return m, m.toggleFavorite(pl)
		}
	case "d":
		if pl := m.selected(); pl != nil {
			m.selectedPlaylist = pl
			m.view = ConfirmDeleteView
			return m, nil
		}
	case "s":
		return m, m.fetchStats()
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlaylistListView
		return m, nil
	case "y":
		return m, m.deletePlaylist(m.selectedPlaylist.ID)
	}
	return m, nil
}

func (m *Model) handleStatsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "s":
		m.view = PlaylistListView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		result := m.history.Playlists(m.ctx, services.HistoryQuery{PageSize: 100})
		return playlistsFetchedMsg{playlists: result.Data.Items, err: result.Err()}
	}
}

func (m *Model) fetchPlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		result := m.history.Playlist(m.ctx, id)
		if !result.Success {
			return playlistFetchedMsg{err: result.Err()}
		}
		return playlistFetchedMsg{playlist: &result.Data}
	}
}

func (m *Model) toggleFavorite(playlist *models.Playlist) tea.Cmd {
	toggled := !playlist.IsFavorite
	return func() tea.Msg {
		result := m.history.UpdatePlaylist(m.ctx, playlist.ID, services.PlaylistPatch{IsFavorite: &toggled})
		if !result.Success {
			return playlistUpdatedMsg{err: result.Err()}
		}
		return playlistUpdatedMsg{playlist: &result.Data}
	}
}

func (m *Model) deletePlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		result := m.history.DeletePlaylist(m.ctx, id)
		return playlistDeletedMsg{id: id, err: result.Err()}
	}
}

func (m *Model) fetchStats() tea.Cmd {
	return func() tea.Msg {
		result := m.history.Stats(m.ctx)
		if !result.Success {
			return statsFetchedMsg{err: result.Err()}
		}
		return statsFetchedMsg{stats: &result.Data}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.favorite, m.keys.delete, m.keys.stats, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	status := ""
	if m.status != "" {
		status = "\n" + m.status
	}
	return fmt.Sprintf("%s%s\n\n%s", m.playlistList.View(), status, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirmDelete() string {
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", m.selectedPlaylist.PlaylistName))
	info := fmt.Sprintf("\nThis removes the playlist from your history.\nTracks: %d\n", len(m.selectedPlaylist.Tracks))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderStats() string {
	title := styles.title.Render("Your Stats")
	body := fmt.Sprintf("\nAnalyses: %d\nPlaylists: %d\n", m.stats.TotalAnalyses, m.stats.TotalPlaylists)
	if m.stats.TopEmotion != "" {
		body += fmt.Sprintf("Most frequent emotion: %s %s\n", services.Label(m.stats.TopEmotion), services.Emoji(m.stats.TopEmotion))
	}
	for emotion, count := range m.stats.EmotionCounts {
		body += fmt.Sprintf("  %s: %d\n", services.Label(emotion), count)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s", title, body, helpView)
}
