package services

import "errors"

// Result is the tagged success-or-error shape returned by the non-auth
// service methods. The auth methods return plain errors instead; both
// conventions exist in the API contract and are reproduced as-is.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
}

// Ok wraps data in a successful Result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps a user-facing message in a failed Result.
func Fail[T any](message string) Result[T] {
	return Result[T]{Success: false, Error: message}
}

// failFrom converts an error into a failed Result, preferring the backend's
// detail message and falling back to the given generic message.
func failFrom[T any](err error, fallback string) Result[T] {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return Fail[T](apiErr.Detail)
	}
	if fallback != "" {
		return Fail[T](fallback)
	}
	return Fail[T](err.Error())
}

// Err converts a failed Result back into an error for throw-style call sites.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}
