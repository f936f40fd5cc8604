package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
)

// Credentials is the login payload. The backend accepts a username or an
// email in the same field.
type Credentials struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// Registration is the register payload.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ProfilePatch carries partial profile updates.
type ProfilePatch struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// PasswordReset is the reset-password payload: the emailed code plus the new
// password.
type PasswordReset struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetInfo is the backend's acknowledgement for the password reset endpoints.
type ResetInfo struct {
	Detail string `json:"detail"`
}

// authURLResponse is the body of the Spotify authorization URL endpoints.
type authURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Error            string `json:"error,omitempty"`
}

// AuthService calls the backend auth endpoints and keeps the stored session
// in sync with their results.
//
// Most methods return errors the caller handles in a try/catch manner; the
// password reset pair returns [Result] objects instead. Both conventions are
// part of the API contract.
type AuthService struct {
	client   *Client
	sessions store.Store
	logger   *log.Logger
}

// NewAuthService creates an auth service writing sessions to the given store.
func NewAuthService(client *Client, sessions store.Store, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthService{client: client, sessions: sessions, logger: logger}
}

// SaveSession persists a token/user pair. Either half may be absent; only
// present halves are written.
func (s *AuthService) SaveSession(sess *models.Session) {
	if sess == nil {
		return
	}
	if sess.AccessToken != "" {
		if err := s.sessions.Set(store.KeyToken, sess.AccessToken); err != nil {
			s.logger.Warn("failed to persist token", "error", err)
		}
	}
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			s.logger.Warn("failed to marshal user", "error", err)
			return
		}
		if err := s.sessions.Set(store.KeyUser, string(data)); err != nil {
			s.logger.Warn("failed to persist user", "error", err)
		}
	}
}

// ClearSession removes the stored token and user together.
func (s *AuthService) ClearSession() {
	s.sessions.Delete(store.KeyToken)
	s.sessions.Delete(store.KeyUser)
}

// StoredUser returns the persisted user record, or nil when absent or
// unparseable.
func (s *AuthService) StoredUser() *models.User {
	raw, ok := s.sessions.Get(store.KeyUser)
	if !ok || raw == "" {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("failed to parse stored user", "error", err)
		return nil
	}
	return &user
}

// StoredToken returns the persisted access token, or "" when absent.
func (s *AuthService) StoredToken() string {
	token, _ := s.sessions.Get(store.KeyToken)
	return token
}

// Login authenticates with the backend and persists the returned session.
//
// Unreachable/timeout/401/400/5xx failures map to distinct user-facing
// messages; any other failure passes through untouched.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*models.Session, error) {
	s.logger.Info("logging in", "user", creds.UsernameOrEmail)

	var sess models.Session
	if err := s.client.Post(ctx, "/api/auth/login", creds, &sess); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Kind == KindNetwork:
				return nil, errors.New("could not reach the server; check that the backend is running")
			case apiErr.Kind == KindTimeout:
				return nil, errors.New("the request took too long, try again")
			case apiErr.Kind == KindUnauthorized:
				return nil, errors.New(detailOr(apiErr, "invalid credentials"))
			case apiErr.Kind == KindBadRequest:
				return nil, errors.New(detailOr(apiErr, "invalid input"))
			case apiErr.Kind == KindServer:
				return nil, errors.New("server error, try again later")
			}
		}
		return nil, err
	}

	s.SaveSession(&sess)
	return &sess, nil
}

// Register creates an account. Registration does not imply login, so no
// session is persisted.
func (s *AuthService) Register(ctx context.Context, payload Registration) (*models.User, error) {
	s.logger.Info("registering", "user", payload.Username)

	var user models.User
	if err := s.client.Post(ctx, "/api/auth/register", payload, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Kind == KindNetwork:
				return nil, errors.New("could not reach the server; check that the backend is running")
			case apiErr.Kind == KindBadRequest:
				return nil, errors.New(detailOr(apiErr, "invalid data, check the form"))
			case apiErr.Kind == KindValidation:
				return nil, errors.New("validation error, check the submitted data")
			case apiErr.Kind == KindServer:
				return nil, errors.New("server error, try again later")
			}
		}
		return nil, err
	}

	return &user, nil
}

// Me fetches the canonical current user. It never synthesizes a fallback
// record; failures propagate.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/api/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the stored session. The backend keeps no server-side session
// to revoke.
func (s *AuthService) Logout() {
	s.logger.Info("logging out")
	s.ClearSession()
}

// SpotifyAuthURL fetches the authorization URL for logging in or registering
// through Spotify. The endpoint is public, so no token is attached.
func (s *AuthService) SpotifyAuthURL(ctx context.Context) (string, error) {
	var resp authURLResponse
	if err := s.client.Get(ctx, "/api/auth/spotify/login", &resp, SkipAuth()); err != nil {
		return "", fmt.Errorf("failed to get Spotify authorization URL: %w", err)
	}
	return resp.AuthorizationURL, nil
}

// SpotifyLinkURL fetches the authorization URL for linking Spotify to the
// current account. The call is authenticated, and the backend may report an
// error in the body even on HTTP success.
func (s *AuthService) SpotifyLinkURL(ctx context.Context) (string, error) {
	var resp authURLResponse
	if err := s.client.Get(ctx, "/api/auth/spotify/link", &resp); err != nil {
		return "", fmt.Errorf("failed to get Spotify link URL: %w", err)
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.AuthorizationURL, nil
}

// ExchangeSpotifyCode exchanges an authorization code for a session. The
// endpoint does not require an existing session. The returned session is
// persisted when it carries a token.
func (s *AuthService) ExchangeSpotifyCode(ctx context.Context, code string) (*models.Session, error) {
	payload := map[string]string{"code": code}

	var sess models.Session
	if err := s.client.Post(ctx, "/api/auth/spotify/exchange", payload, &sess, SkipAuth()); err != nil {
		return nil, err
	}

	if sess.AccessToken != "" {
		s.SaveSession(&sess)
	}
	return &sess, nil
}

// LinkSpotify exchanges an authorization code through the linking endpoint,
// which requires the existing session. The fresh token/user pair reflecting
// the linked account is persisted.
func (s *AuthService) LinkSpotify(ctx context.Context, code string) (*models.Session, error) {
	path := "/api/auth/spotify/link/callback?code=" + url.QueryEscape(code)

	var sess models.Session
	if err := s.client.Post(ctx, path, nil, &sess); err != nil {
		return nil, err
	}

	s.SaveSession(&sess)
	return &sess, nil
}

// DisconnectSpotify unlinks the Spotify account.
func (s *AuthService) DisconnectSpotify(ctx context.Context) error {
	if err := s.client.Post(ctx, "/api/auth/spotify/disconnect", nil, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return errors.New(apiErr.Detail)
		}
		return err
	}
	return nil
}

// UpdateProfile applies a partial profile update and persists the returned
// user record.
func (s *AuthService) UpdateProfile(ctx context.Context, patch ProfilePatch) (*models.User, error) {
	var user models.User
	if err := s.client.Patch(ctx, "/api/auth/me", patch, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return nil, errors.New(apiErr.Detail)
		}
		return nil, err
	}

	s.SaveSession(&models.Session{User: &user})
	return &user, nil
}

// RequestPasswordReset asks the backend to email a reset code.
//
// Unreachable servers, unknown emails (404) and rejected emails (400) are
// returned as errors; other failures come back inside the Result. The split
// mirrors the API contract rather than unifying it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (Result[ResetInfo], error) {
	payload := map[string]string{"email": email}

	var info ResetInfo
	err := s.client.Post(ctx, "/api/auth/forgot-password", payload, &info, SkipAuth())
	if err == nil {
		return Ok(info), nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == KindNetwork:
			return Fail[ResetInfo](""), errors.New("could not reach the server")
		case apiErr.Kind == KindNotFound:
			return Fail[ResetInfo](""), errors.New("no account exists with that email")
		case apiErr.Kind == KindBadRequest && strings.Contains(apiErr.Detail, "Spotify"):
			return Fail[ResetInfo](""), errors.New("this account signs in with Spotify and has no password to recover")
		case apiErr.Kind == KindBadRequest:
			return Fail[ResetInfo](""), errors.New(detailOr(apiErr, "invalid email"))
		}
	}

	return failFrom[ResetInfo](err, "failed to send the reset code"), nil
}

// ResetPassword redeems an emailed code for a new password.
func (s *AuthService) ResetPassword(ctx context.Context, req PasswordReset) (Result[ResetInfo], error) {
	var info ResetInfo
	err := s.client.Post(ctx, "/api/auth/reset-password", req, &info, SkipAuth())
	if err == nil {
		return Ok(info), nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindBadRequest {
		return Fail[ResetInfo](""), errors.New(detailOr(apiErr, "invalid or expired code"))
	}

	return failFrom[ResetInfo](err, "failed to change the password"), nil
}

// detailOr prefers the backend's detail message over a generic fallback.
func detailOr(err *APIError, fallback string) string {
	if err.Detail != "" {
		return err.Detail
	}
	return fallback
}
