package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/store"
)

type fakeAuth struct {
	loginSession *models.Session
	loginErr     error

	registerUser *models.User
	registerErr  error

	meUser  *models.User
	meErr   error
	meCalls int

	stored      *models.User
	logoutCalls int
}

func (f *fakeAuth) Login(ctx context.Context, creds services.Credentials) (*models.Session, error) {
	return f.loginSession, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, payload services.Registration) (*models.User, error) {
	return f.registerUser, f.registerErr
}

func (f *fakeAuth) Me(ctx context.Context) (*models.User, error) {
	f.meCalls++
	return f.meUser, f.meErr
}

func (f *fakeAuth) Logout() { f.logoutCalls++ }

func (f *fakeAuth) StoredUser() *models.User { return f.stored }

func TestManagerLoad(t *testing.T) {
	t.Run("hydrates from the store without a network call", func(t *testing.T) {
		auth := &fakeAuth{stored: &models.User{Username: "maya"}}
		m := NewManager(auth, store.NewMemoryStore(), nil)

		if m.Loaded() {
			t.Error("construction must not hydrate")
		}
		m.Load()
		if !m.Loaded() || !m.IsAuthenticated() {
			t.Error("expected a loaded, authenticated manager")
		}
		if auth.meCalls != 0 {
			t.Error("hydration must not hit the network")
		}
	})

	t.Run("no stored record means logged out", func(t *testing.T) {
		m := NewManager(&fakeAuth{}, store.NewMemoryStore(), nil)
		m.Load()
		if m.IsAuthenticated() {
			t.Error("expected an anonymous manager")
		}
	})
}

func TestManagerLogin(t *testing.T) {
	t.Run("keeps the returned user in memory", func(t *testing.T) {
		auth := &fakeAuth{loginSession: &models.Session{
			AccessToken: "tkn",
			User:        &models.User{Username: "maya"},
		}}
		m := NewManager(auth, store.NewMemoryStore(), nil)

		res := m.Login(context.Background(), services.Credentials{UsernameOrEmail: "maya", Password: "pw"})
		if !res.Success {
			t.Fatalf("expected success, got %q", res.Error)
		}
		if m.User() == nil || m.User().Username != "maya" {
			t.Errorf("expected user installed, got %+v", m.User())
		}
	})

	t.Run("translates the error into the result shape", func(t *testing.T) {
		auth := &fakeAuth{loginErr: errors.New("invalid credentials")}
		m := NewManager(auth, store.NewMemoryStore(), nil)

		res := m.Login(context.Background(), services.Credentials{})
		if res.Success || res.Error != "invalid credentials" {
			t.Errorf("unexpected result: %+v", res)
		}
		if m.IsAuthenticated() {
			t.Error("a failed login must not install a user")
		}
	})
}

func TestManagerRegister(t *testing.T) {
	auth := &fakeAuth{registerUser: &models.User{Username: "maya"}}
	m := NewManager(auth, store.NewMemoryStore(), nil)

	res := m.Register(context.Background(), services.Registration{Username: "maya"})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if m.IsAuthenticated() {
		t.Error("registering is not logging in")
	}
}

func TestManagerRefreshUser(t *testing.T) {
	t.Run("mirrors the fetched user to the store", func(t *testing.T) {
		auth := &fakeAuth{meUser: &models.User{Username: "maya"}}
		sessions := store.NewMemoryStore()
		m := NewManager(auth, sessions, nil)

		user, err := m.RefreshUser(context.Background())
		if err != nil || user == nil {
			t.Fatalf("unexpected refresh failure: %v", err)
		}
		raw, ok := sessions.Get(store.KeyUser)
		if !ok {
			t.Fatal("expected the user mirrored to the store")
		}
		var stored models.User
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			t.Fatalf("stored user is not valid JSON: %v", err)
		}
		if stored.Username != "maya" {
			t.Errorf("unexpected stored user: %+v", stored)
		}
	})

	t.Run("failure clears the in-memory user", func(t *testing.T) {
		auth := &fakeAuth{stored: &models.User{Username: "maya"}, meErr: errors.New("boom")}
		m := NewManager(auth, store.NewMemoryStore(), nil)
		m.Load()

		if _, err := m.RefreshUser(context.Background()); err == nil {
			t.Fatal("expected an error")
		}
		if m.IsAuthenticated() {
			t.Error("an unfetchable identity is logged out")
		}
	})
}

func TestManagerSetUser(t *testing.T) {
	t.Run("nil removes the stored record", func(t *testing.T) {
		sessions := store.NewMemoryStore()
		m := NewManager(&fakeAuth{}, sessions, nil)

		if err := m.SetUser(&models.User{Username: "maya"}); err != nil {
			t.Fatal(err)
		}
		if err := m.SetUser(nil); err != nil {
			t.Fatal(err)
		}
		if _, ok := sessions.Get(store.KeyUser); ok {
			t.Error("expected the stored user removed")
		}
		if m.IsAuthenticated() {
			t.Error("expected an anonymous manager")
		}
	})
}

func TestManagerToken(t *testing.T) {
	sessions := store.NewMemoryStore()
	m := NewManager(&fakeAuth{}, sessions, nil)

	if m.Token() != "" {
		t.Error("expected no token")
	}
	if err := m.SetToken("tkn-123"); err != nil {
		t.Fatal(err)
	}
	if m.Token() != "tkn-123" {
		t.Errorf("unexpected token %q", m.Token())
	}
}

func TestManagerLogout(t *testing.T) {
	auth := &fakeAuth{stored: &models.User{Username: "maya"}}
	m := NewManager(auth, store.NewMemoryStore(), nil)
	m.Load()

	m.Logout()
	if auth.logoutCalls != 1 {
		t.Errorf("expected the auth client logout, got %d calls", auth.logoutCalls)
	}
	if m.IsAuthenticated() {
		t.Error("expected an anonymous manager after logout")
	}
}

func TestPendingRecords(t *testing.T) {
	t.Run("round trips through the store", func(t *testing.T) {
		s := store.NewMemoryStore()
		pending := &models.PendingPlaylistSave{
			PlaylistName: "Calm afternoon",
			Tracks:       []models.PendingTrack{{ID: "t1"}},
		}

		if err := StorePending(s, pending); err != nil {
			t.Fatal(err)
		}
		got, err := LoadPending(s)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.PlaylistName != pending.PlaylistName || len(got.Tracks) != 1 {
			t.Errorf("unexpected record: %+v", got)
		}

		if err := DeletePending(s); err != nil {
			t.Fatal(err)
		}
		if got, _ := LoadPending(s); got != nil {
			t.Error("expected no record after delete")
		}
	})

	t.Run("absent record is nil without error", func(t *testing.T) {
		got, err := LoadPending(store.NewMemoryStore())
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %+v, %v", got, err)
		}
	})

	t.Run("corrupt record reports an error", func(t *testing.T) {
		s := store.NewMemoryStore()
		s.Set(store.KeyPending, "{not json")
		if _, err := LoadPending(s); err == nil {
			t.Error("expected a parse error")
		}
	})
}
