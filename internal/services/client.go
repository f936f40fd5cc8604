// HTTP plumbing for the Ánima REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
	"golang.org/x/time/rate"
)

// ErrorKind classifies an API failure into the categories the call sites
// distinguish: unreachable, slow, bad input, unauthorized, inactive account,
// not found, validation, server error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindTimeout
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindServer
)

// APIError is the uniform failure representation for backend calls.
//
// Transport failures carry a zero Status; HTTP failures carry the status code
// and whatever `detail` the backend included in the body.
type APIError struct {
	Status int
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("API error: status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.cause }

// detailPayload matches the backend's error body. Detail is either a plain
// string or an array of field validation errors.
type detailPayload struct {
	Detail json.RawMessage `json:"detail"`
	Err    string          `json:"error"`
}

type fieldError struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// extractDetail pulls a human-readable message out of an error response body.
func extractDetail(body []byte) string {
	var payload detailPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}

		var fields []fieldError
		if err := json.Unmarshal(payload.Detail, &fields); err == nil {
			msg := ""
			for _, f := range fields {
				m := f.Msg
				if m == "" {
					m = f.Message
				}
				if m == "" {
					continue
				}
				if msg != "" {
					msg += ", "
				}
				msg += m
			}
			return msg
		}
	}

	return payload.Err
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// Client performs HTTP requests against the Ánima backend.
//
// It attaches the stored bearer token to every request unless the call opts
// out (public endpoints must not carry stale Authorization headers), enforces
// a fixed request timeout, and rate limits outbound calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     store.Store
	limiter    *rate.Limiter
}

// NewClient creates a client for the backend at baseURL, reading bearer
// tokens from the given store. A nil httpClient gets a default with the
// specified timeout applied.
func NewClient(baseURL string, tokens store.Store, httpClient *http.Client, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
}

// BaseURL returns the backend base URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

type requestOptions struct {
	skipAuth    bool
	contentType string
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// SkipAuth suppresses the Authorization header for public endpoints.
func SkipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, opts ...RequestOption) ([]byte, error) {
	options := requestOptions{contentType: "application/json"}
	for _, opt := range opts {
		opt(&options)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: KindTimeout, cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", options.contentType)
	}
	req.Header.Set("X-Request-ID", shared.GenerateID())

	if !options.skipAuth && c.tokens != nil {
		if token, ok := c.tokens.Get(store.KeyToken); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindNetwork
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			kind = KindTimeout
		}
		return nil, &APIError{Kind: kind, cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status: resp.StatusCode,
			Kind:   kindForStatus(resp.StatusCode),
			Detail: extractDetail(respBody),
		}
	}

	return respBody, nil
}

// doJSON performs a request with an optional JSON payload and decodes the
// response into result when result is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, result any, opts ...RequestOption) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	respBody, err := c.do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result, opts...)
}

// Post performs a POST request with a JSON payload.
func (c *Client) Post(ctx context.Context, path string, payload, result any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, result, opts...)
}

// Patch performs a PATCH request with a JSON payload.
func (c *Client) Patch(ctx context.Context, path string, payload, result any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPatch, path, payload, result, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, result, opts...)
}

// PostFile uploads the file at filePath as a multipart form field and decodes
// the JSON response into result.
func (c *Client) PostFile(ctx context.Context, path, field, filePath string, result any, opts ...RequestOption) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	opts = append(opts, func(o *requestOptions) { o.contentType = writer.FormDataContentType() })

	respBody, err := c.do(ctx, http.MethodPost, path, &buf, opts...)
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
