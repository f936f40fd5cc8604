package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/session"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
	"github.com/desertthunder/anima/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	auth     *services.AuthService
	history  *services.HistoryService
	spotify  *services.SpotifyService
	emotion  *services.EmotionService
	sessions *session.Manager
	kv       store.Store
	markers  store.Store
	engine   *tasks.PendingEngine
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains the dependencies for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Auth     *services.AuthService
	History  *services.HistoryService
	Spotify  *services.SpotifyService
	Emotion  *services.EmotionService
	Sessions *session.Manager
	Store    store.Store
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided dependencies.
//
// The markers store is always a fresh in-memory store: processed-callback
// markers are scoped to the process, unlike the durable session store.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}

	engine := tasks.NewPendingEngine(opts.Store, opts.History, opts.Spotify, opts.Logger)

	return &Runner{
		config:   opts.Config,
		auth:     opts.Auth,
		history:  opts.History,
		spotify:  opts.Spotify,
		emotion:  opts.Emotion,
		sessions: opts.Sessions,
		kv:       opts.Store,
		markers:  store.NewMemoryStore(),
		engine:   engine,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the runner's logger, used by the TUI to redirect logs away
// from the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, spotifyCommand, profileCommand, analyzeCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireLogin guards authenticated commands.
func (r *Runner) requireLogin() error {
	if r.sessions.Token() == "" {
		return fmt.Errorf("%w: run 'anima auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
