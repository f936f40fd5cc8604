// Package services contains the HTTP clients for the Ánima backend.
//
// # Client
//
// [Client] owns the plumbing every service shares: base URL, a fixed request
// timeout, outbound rate limiting, bearer-token injection from the session
// store, and classification of failures into [APIError] kinds (network,
// timeout, bad input, unauthorized, inactive account, not found, validation,
// server error).
//
// Public endpoints opt out of the Authorization header with [SkipAuth] so a
// stale stored token never leaks into login, registration, or code-exchange
// requests.
//
// # Two error conventions
//
// [AuthService] methods return plain errors and the caller decides how to
// surface them. [HistoryService], [SpotifyService] and [EmotionService]
// return [Result] values carrying either data or a user-facing message. The
// split reproduces the API contract as the rest of the application consumes
// it; [Result.Err] adapts between the two where a call site needs to.
//
// # Session writes
//
// [AuthService] is the writer for the persisted session: login, code
// exchange, linking, and profile updates all store the returned token/user
// pair before returning. Registration deliberately does not (registering is
// not logging in).
//
// No method retries. Every network call is attempted exactly once and the
// failure is terminal for that attempt.
package services
