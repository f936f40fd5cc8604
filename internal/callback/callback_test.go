package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/store"
	"github.com/desertthunder/anima/internal/tasks"
)

type fakeAuth struct {
	meUser  *models.User
	meErr   error
	meCalls int

	exchangeSession *models.Session
	exchangeErr     error
	exchangeCalls   int
	exchangeCode    string

	linkSession *models.Session
	linkErr     error
	linkCalls   int
	linkCode    string
}

func (f *fakeAuth) Me(ctx context.Context) (*models.User, error) {
	f.meCalls++
	return f.meUser, f.meErr
}

func (f *fakeAuth) ExchangeSpotifyCode(ctx context.Context, code string) (*models.Session, error) {
	f.exchangeCalls++
	f.exchangeCode = code
	return f.exchangeSession, f.exchangeErr
}

func (f *fakeAuth) LinkSpotify(ctx context.Context, code string) (*models.Session, error) {
	f.linkCalls++
	f.linkCode = code
	return f.linkSession, f.linkErr
}

type fakeSessions struct {
	token        string
	storedToken  string
	user         *models.User
	setUserCalls int

	refreshedUser *models.User
	refreshErr    error
	refreshCalls  int
}

func (f *fakeSessions) Token() string { return f.token }

func (f *fakeSessions) SetToken(token string) error {
	f.storedToken = token
	return nil
}

func (f *fakeSessions) SetUser(user *models.User) error {
	f.setUserCalls++
	f.user = user
	return nil
}

func (f *fakeSessions) RefreshUser(ctx context.Context) (*models.User, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		f.user = nil
		return nil, f.refreshErr
	}
	f.user = f.refreshedUser
	return f.refreshedUser, nil
}

type fakePending struct {
	outcome *tasks.PendingOutcome
	err     error
	calls   int
	gotUser *models.User
}

func (f *fakePending) Process(ctx context.Context, user *models.User) (*tasks.PendingOutcome, error) {
	f.calls++
	f.gotUser = user
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome == nil {
		return &tasks.PendingOutcome{}, nil
	}
	return f.outcome, nil
}

type fakeNav struct {
	route     string
	notice    string
	navigates int

	reloadRoute string
	reloads     int
}

func (f *fakeNav) Navigate(route, notice string) {
	f.navigates++
	f.route = route
	f.notice = notice
}

func (f *fakeNav) Reload(route string) {
	f.reloads++
	f.reloadRoute = route
}

type harness struct {
	markers  *store.MemoryStore
	auth     *fakeAuth
	sessions *fakeSessions
	pending  *fakePending
	nav      *fakeNav
	flow     *Flow
}

func newHarness() *harness {
	h := &harness{
		markers:  store.NewMemoryStore(),
		auth:     &fakeAuth{},
		sessions: &fakeSessions{},
		pending:  &fakePending{},
		nav:      &fakeNav{},
	}
	h.flow = NewFlow(h.markers, h.auth, h.sessions, h.pending, h.nav, nil)
	return h
}

func TestParseQuery(t *testing.T) {
	t.Run("extracts all recognized parameters", func(t *testing.T) {
		p := ParseQuery("code=abc&state=link%3Axyz&token=tkn&error=denied")
		if p.Code != "abc" || p.State != "link:xyz" || p.Token != "tkn" || p.Error != "denied" {
			t.Errorf("unexpected params: %+v", p)
		}
		if !p.IsLinking() {
			t.Error("expected linking params")
		}
	})

	t.Run("bare code is not a linking flow", func(t *testing.T) {
		p := ParseQuery("code=abc&state=plain")
		if p.IsLinking() {
			t.Error("state without link prefix should not be linking")
		}
	})

	t.Run("keeps the raw query on parse failure", func(t *testing.T) {
		p := ParseQuery("%zz")
		if p.RawQuery != "%zz" {
			t.Errorf("expected raw query preserved, got %q", p.RawQuery)
		}
	})
}

func TestFlowMarkers(t *testing.T) {
	t.Run("same query is processed once", func(t *testing.T) {
		h := newHarness()
		h.sessions.token = "tkn"
		p := ParseQuery("error=access_denied")

		first := h.flow.Handle(context.Background(), p)
		if first.State != StateProviderError {
			t.Fatalf("expected provider error state, got %v", first.State)
		}

		second := h.flow.Handle(context.Background(), p)
		if second.State != StateAlreadyProcessed {
			t.Errorf("expected already processed, got %v", second.State)
		}
		if second.Route != "" {
			t.Errorf("no-op outcome should not carry a route, got %q", second.Route)
		}
		if h.nav.navigates != 1 {
			t.Errorf("expected a single navigation, got %d", h.nav.navigates)
		}
	})

	t.Run("marker survives a failed exchange", func(t *testing.T) {
		h := newHarness()
		h.auth.exchangeErr = errors.New("boom")
		p := ParseQuery("code=abc")

		h.flow.Handle(context.Background(), p)
		out := h.flow.Handle(context.Background(), p)
		if out.State != StateAlreadyProcessed {
			t.Errorf("failed callbacks must not be retried, got %v", out.State)
		}
		if h.auth.exchangeCalls != 1 {
			t.Errorf("expected exactly one exchange call, got %d", h.auth.exchangeCalls)
		}
	})

	t.Run("distinct queries each get processed", func(t *testing.T) {
		h := newHarness()
		h.flow.Handle(context.Background(), ParseQuery("error=denied"))
		out := h.flow.Handle(context.Background(), ParseQuery("error=denied&hint=1"))
		if out.State != StateProviderError {
			t.Errorf("a different query must be processed, got %v", out.State)
		}
	})
}

func TestFlowProviderError(t *testing.T) {
	t.Run("makes no network calls", func(t *testing.T) {
		h := newHarness()
		h.flow.Handle(context.Background(), ParseQuery("error=access_denied"))
		if h.auth.meCalls+h.auth.exchangeCalls+h.auth.linkCalls != 0 {
			t.Error("provider errors must not trigger network calls")
		}
	})

	t.Run("authenticated session stays on home", func(t *testing.T) {
		h := newHarness()
		h.sessions.token = "tkn"
		out := h.flow.Handle(context.Background(), ParseQuery("error=access_denied"))
		if out.Route != RouteHome || h.nav.route != RouteHome {
			t.Errorf("expected home, got %q", h.nav.route)
		}
		if out.Notice == "" {
			t.Error("expected a cancellation notice")
		}
	})

	t.Run("anonymous session lands on login", func(t *testing.T) {
		h := newHarness()
		out := h.flow.Handle(context.Background(), ParseQuery("error=access_denied"))
		if out.Route != RouteLogin || h.nav.route != RouteLogin {
			t.Errorf("expected login, got %q", h.nav.route)
		}
	})
}

func TestFlowDirectToken(t *testing.T) {
	t.Run("persists token and installs the fetched user", func(t *testing.T) {
		h := newHarness()
		h.auth.meUser = &models.User{Username: "maya"}

		out := h.flow.Handle(context.Background(), ParseQuery("token=tkn-123"))
		if h.sessions.storedToken != "tkn-123" {
			t.Errorf("expected token persisted, got %q", h.sessions.storedToken)
		}
		if h.auth.meCalls != 1 {
			t.Errorf("expected exactly one profile fetch, got %d", h.auth.meCalls)
		}
		if h.sessions.user == nil || h.sessions.user.Username != "maya" {
			t.Errorf("expected user installed, got %+v", h.sessions.user)
		}
		if out.Route != RouteHome {
			t.Errorf("expected home, got %q", out.Route)
		}
	})

	t.Run("failed profile fetch keeps the token and still lands home", func(t *testing.T) {
		h := newHarness()
		h.auth.meErr = errors.New("boom")

		out := h.flow.Handle(context.Background(), ParseQuery("token=tkn-123"))
		if h.sessions.storedToken != "tkn-123" {
			t.Error("token must be retained when the profile fetch fails")
		}
		if h.sessions.setUserCalls != 0 {
			t.Error("no user should be installed on fetch failure")
		}
		if out.Route != RouteHome {
			t.Errorf("expected home, got %q", out.Route)
		}
	})
}

func TestFlowLinking(t *testing.T) {
	linked := &models.User{Username: "maya", SpotifyConnected: true}

	t.Run("refreshes the user and reconciles pending saves", func(t *testing.T) {
		h := newHarness()
		h.auth.linkSession = &models.Session{AccessToken: "tkn"}
		h.sessions.refreshedUser = linked
		h.pending.outcome = &tasks.PendingOutcome{Processed: true, Saved: &models.Playlist{PlaylistName: "Calm"}}

		out := h.flow.Handle(context.Background(), ParseQuery("code=abc&state=link%3Axyz"))
		if h.auth.linkCalls != 1 || h.auth.linkCode != "abc" {
			t.Errorf("expected one link call with the code, got %d %q", h.auth.linkCalls, h.auth.linkCode)
		}
		if h.sessions.refreshCalls != 1 {
			t.Errorf("expected one refresh, got %d", h.sessions.refreshCalls)
		}
		if h.pending.calls != 1 || h.pending.gotUser != linked {
			t.Error("pending reconciliation must run with the refreshed user")
		}
		if out.Route != RouteHome || out.Pending == nil || !out.Pending.Processed {
			t.Errorf("unexpected outcome: %+v", out)
		}
	})

	t.Run("link failure surfaces the server detail and keeps the session", func(t *testing.T) {
		h := newHarness()
		h.auth.linkErr = &services.APIError{Status: 400, Detail: "account already linked"}

		out := h.flow.Handle(context.Background(), ParseQuery("code=abc&state=link%3Axyz"))
		if out.Notice != "account already linked" {
			t.Errorf("expected server detail, got %q", out.Notice)
		}
		if out.Route != RouteHome {
			t.Errorf("a failed link keeps the user home, got %q", out.Route)
		}
		if h.sessions.refreshCalls != 0 || h.pending.calls != 0 {
			t.Error("nothing past the link call should run on failure")
		}
	})

	t.Run("refresh failure forces a reload instead of a soft navigation", func(t *testing.T) {
		h := newHarness()
		h.auth.linkSession = &models.Session{AccessToken: "tkn"}
		h.sessions.refreshErr = errors.New("boom")

		h.flow.Handle(context.Background(), ParseQuery("code=abc&state=link%3Axyz"))
		if h.nav.reloads != 1 || h.nav.reloadRoute != RouteHome {
			t.Errorf("expected a reload to home, got %d %q", h.nav.reloads, h.nav.reloadRoute)
		}
		if h.nav.navigates != 0 {
			t.Error("no soft navigation on refresh failure")
		}
		if h.pending.calls != 0 {
			t.Error("pending reconciliation must not run without a refreshed user")
		}
	})

	t.Run("pending failures adjust the notice without blocking navigation", func(t *testing.T) {
		h := newHarness()
		h.auth.linkSession = &models.Session{AccessToken: "tkn"}
		h.sessions.refreshedUser = linked
		h.pending.outcome = &tasks.PendingOutcome{Processed: true, CreateError: "spotify unavailable"}

		out := h.flow.Handle(context.Background(), ParseQuery("code=abc&state=link%3Axyz"))
		if out.Route != RouteHome {
			t.Errorf("expected home, got %q", out.Route)
		}
		if out.Notice == "Spotify account linked" {
			t.Error("expected the notice to mention the failed Spotify creation")
		}
	})
}

func TestFlowExchange(t *testing.T) {
	t.Run("installs the exchanged user and lands home", func(t *testing.T) {
		h := newHarness()
		h.auth.exchangeSession = &models.Session{
			AccessToken: "tkn",
			User:        &models.User{Username: "maya"},
		}

		out := h.flow.Handle(context.Background(), ParseQuery("code=abc"))
		if h.auth.exchangeCalls != 1 || h.auth.exchangeCode != "abc" {
			t.Errorf("expected one exchange with the code, got %d %q", h.auth.exchangeCalls, h.auth.exchangeCode)
		}
		if h.sessions.user == nil || h.sessions.user.Username != "maya" {
			t.Errorf("expected user installed, got %+v", h.sessions.user)
		}
		if out.Route != RouteHome {
			t.Errorf("expected home, got %q", out.Route)
		}
	})

	t.Run("failed exchange lands on login with the server detail", func(t *testing.T) {
		h := newHarness()
		h.auth.exchangeErr = &services.APIError{Status: 400, Detail: "code already used"}

		out := h.flow.Handle(context.Background(), ParseQuery("code=abc"))
		if out.Route != RouteLogin {
			t.Errorf("expected login, got %q", out.Route)
		}
		if out.Notice != "code already used" {
			t.Errorf("expected server detail, got %q", out.Notice)
		}
	})
}

func TestFlowUnrecognized(t *testing.T) {
	h := newHarness()
	out := h.flow.Handle(context.Background(), ParseQuery("foo=bar"))
	if out.State != StateUnrecognized || out.Route != RouteLogin {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if h.auth.meCalls+h.auth.exchangeCalls+h.auth.linkCalls != 0 {
		t.Error("unrecognized callbacks must not trigger network calls")
	}
}
