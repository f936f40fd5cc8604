// package callback reconciles one-shot OAuth redirect URLs with the session
package callback

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
	"github.com/desertthunder/anima/internal/tasks"
)

// Navigation targets. The authenticated home and the login screen are the
// only places a callback can land.
const (
	RouteHome  = "/home"
	RouteLogin = "/login"
)

// Params are the query parameters of one OAuth callback URL. They live for a
// single invocation and are never persisted.
type Params struct {
	RawQuery string
	Token    string
	Error    string
	Code     string
	State    string
}

// ParseQuery extracts callback parameters from a raw query string.
func ParseQuery(rawQuery string) Params {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Undecodable queries still get a marker so they are not reprocessed.
		return Params{RawQuery: rawQuery}
	}
	return Params{
		RawQuery: rawQuery,
		Token:    values.Get("token"),
		Error:    values.Get("error"),
		Code:     values.Get("code"),
		State:    values.Get("state"),
	}
}

// IsLinking reports whether the state marks an account-linking flow.
func (p Params) IsLinking() bool {
	return p.Code != "" && strings.HasPrefix(p.State, shared.LinkStatePrefix)
}

// State names the dispatch branch a callback took.
type State int

const (
	StateAlreadyProcessed State = iota
	StateProviderError
	StateDirectToken
	StateLinking
	StateExchange
	StateUnrecognized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAlreadyProcessed:
		return "already_processed"
	case StateProviderError:
		return "provider_error"
	case StateDirectToken:
		return "direct_token"
	case StateLinking:
		return "linking"
	case StateExchange:
		return "exchange"
	case StateUnrecognized:
		return "unrecognized"
	default:
		return "failed"
	}
}

// Outcome reports where a callback landed and what the user should be told.
type Outcome struct {
	State   State
	Route   string // empty for the already-processed no-op
	Notice  string
	Pending *tasks.PendingOutcome // set when a deferred save was reconciled
}

// AuthAPI is the slice of the auth client the flow needs.
type AuthAPI interface {
	Me(ctx context.Context) (*models.User, error)
	ExchangeSpotifyCode(ctx context.Context, code string) (*models.Session, error)
	LinkSpotify(ctx context.Context, code string) (*models.Session, error)
}

// Sessions is the slice of the session manager the flow needs.
type Sessions interface {
	Token() string
	SetToken(token string) error
	SetUser(user *models.User) error
	RefreshUser(ctx context.Context) (*models.User, error)
}

// PendingProcessor reconciles a deferred playlist save after linking.
type PendingProcessor interface {
	Process(ctx context.Context, user *models.User) (*tasks.PendingOutcome, error)
}

// Navigator moves the user onward once a callback resolves. Navigate is a
// soft transition; Reload forces a full re-bootstrap from server-verified
// state.
type Navigator interface {
	Navigate(route, notice string)
	Reload(route string)
}

// Flow dispatches one OAuth callback to the sub-flow its parameters describe
// and brings the session to a consistent state.
//
// Each distinct query string is processed at most once per process: a marker
// is written to the session-scoped store before any network call, closing
// the window between the check and the first suspension point. No call is
// ever retried.
type Flow struct {
	markers  store.Store
	auth     AuthAPI
	sessions Sessions
	pending  PendingProcessor
	nav      Navigator
	logger   *log.Logger
}

// NewFlow wires a callback flow. The markers store should be session-scoped
// (process-lifetime): markers are never cleared explicitly.
func NewFlow(markers store.Store, auth AuthAPI, sessions Sessions, pending PendingProcessor, nav Navigator, logger *log.Logger) *Flow {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Flow{
		markers:  markers,
		auth:     auth,
		sessions: sessions,
		pending:  pending,
		nav:      nav,
		logger:   logger,
	}
}

// Handle processes one callback invocation.
//
// Whatever goes wrong inside the dispatch, the flow resolves to a navigation:
// the caller is never left stranded.
func (f *Flow) Handle(ctx context.Context, p Params) (out Outcome) {
	marker := store.MarkerKey(p.RawQuery)
	if _, done := f.markers.Get(marker); done {
		f.logger.Debug("callback already processed, ignoring", "query", p.RawQuery)
		return Outcome{State: StateAlreadyProcessed}
	}
	f.markers.Set(marker, "1")

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("callback handling panicked", "panic", r)
			out = Outcome{State: StateFailed, Route: RouteLogin}
			f.nav.Navigate(RouteLogin, "")
		}
	}()

	switch {
	case p.Error != "":
		return f.providerError(p)
	case p.Token != "":
		return f.directToken(ctx, p)
	case p.IsLinking():
		return f.link(ctx, p)
	case p.Code != "":
		return f.exchange(ctx, p)
	default:
		f.nav.Navigate(RouteLogin, "")
		return Outcome{State: StateUnrecognized, Route: RouteLogin}
	}
}

// providerError handles a denied or cancelled authorization. No network
// calls are made; an existing session stays logged in.
func (f *Flow) providerError(p Params) Outcome {
	f.logger.Warn("OAuth error from provider", "error", p.Error)

	if f.sessions.Token() != "" {
		notice := "Spotify authorization was cancelled"
		f.nav.Navigate(RouteHome, notice)
		return Outcome{State: StateProviderError, Route: RouteHome, Notice: notice}
	}

	notice := "Spotify authorization was cancelled, you can log in normally"
	f.nav.Navigate(RouteLogin, notice)
	return Outcome{State: StateProviderError, Route: RouteLogin, Notice: notice}
}

// directToken handles a backend-minted token embedded in the redirect
// (login or registration through Spotify). The token is persisted first;
// a failed user fetch is logged but does not block navigation.
func (f *Flow) directToken(ctx context.Context, p Params) Outcome {
	if err := f.sessions.SetToken(p.Token); err != nil {
		f.logger.Error("failed to persist token", "error", err)
	}

	user, err := f.auth.Me(ctx)
	if err != nil {
		f.logger.Error("failed to fetch user after OAuth", "error", err)
	} else if err := f.sessions.SetUser(user); err != nil {
		f.logger.Warn("failed to install user", "error", err)
	}

	f.nav.Navigate(RouteHome, "")
	return Outcome{State: StateDirectToken, Route: RouteHome}
}

// link handles the account-linking exchange, then refreshes the session user
// and reconciles any deferred playlist save.
func (f *Flow) link(ctx context.Context, p Params) Outcome {
	if _, err := f.auth.LinkSpotify(ctx, p.Code); err != nil {
		f.logger.Error("failed to link Spotify account", "error", err)
		// Linking failed but the existing session is untouched.
		notice := linkErrorNotice(err)
		f.nav.Navigate(RouteHome, notice)
		return Outcome{State: StateLinking, Route: RouteHome, Notice: notice}
	}

	refreshed, err := f.sessions.RefreshUser(ctx)
	if err != nil {
		// Without a canonical user the soft path is unsafe; force a full
		// re-bootstrap from server-verified state.
		f.logger.Warn("failed to refresh user after linking, forcing reload", "error", err)
		f.nav.Reload(RouteHome)
		return Outcome{State: StateLinking, Route: RouteHome, Notice: "Spotify account linked"}
	}

	notice := "Spotify account linked"
	outcome, pendErr := f.pending.Process(ctx, refreshed)
	if pendErr != nil {
		f.logger.Error("failed to process pending playlist save", "error", pendErr)
	} else if outcome.Processed {
		switch {
		case outcome.SaveError != "":
			notice = "Spotify account linked, but the pending playlist could not be saved; it will be retried"
		case outcome.CreateError != "":
			notice = "playlist saved to your history, but it could not be created on Spotify automatically"
		}
	}

	f.nav.Navigate(RouteHome, notice)
	return Outcome{State: StateLinking, Route: RouteHome, Notice: notice, Pending: outcome}
}

// exchange handles a bare authorization code (direct login or registration).
func (f *Flow) exchange(ctx context.Context, p Params) Outcome {
	sess, err := f.auth.ExchangeSpotifyCode(ctx, p.Code)
	if err != nil {
		f.logger.Error("failed to exchange Spotify code", "error", err)
		notice := exchangeErrorNotice(err)
		f.nav.Navigate(RouteLogin, notice)
		return Outcome{State: StateExchange, Route: RouteLogin, Notice: notice}
	}

	if sess.User != nil {
		if err := f.sessions.SetUser(sess.User); err != nil {
			f.logger.Warn("failed to install user", "error", err)
		}
	}

	f.nav.Navigate(RouteHome, "")
	return Outcome{State: StateExchange, Route: RouteHome}
}

func linkErrorNotice(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "could not link the Spotify account"
}

func exchangeErrorNotice(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "could not complete Spotify sign-in"
}
