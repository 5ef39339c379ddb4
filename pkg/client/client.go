// Package client is a Go SDK for the pharmacy API. It carries the page-level
// behaviour of the web frontend: an explicit session, a fixed request
// timeout, CRUD controllers with notifications, the pre-submit stock check
// for invoices and the take/return adjustment workflow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pharmacy/internal/infrastructure/http/v1/dto"
)

// Timeout applies to every request.
const Timeout = 10 * time.Second

// Session identifies the API and the caller. It is passed explicitly to
// New; nothing is read from global state.
type Session struct {
	// BaseURL including the version prefix, e.g. http://localhost:8080/api/v1
	BaseURL string
	Token   string
}

// Client sends authenticated JSON requests.
type Client struct {
	session Session
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The 10 s timeout is still enforced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the session.
func New(session Session, opts ...Option) *Client {
	c := &Client{
		session: Session{BaseURL: strings.TrimRight(session.BaseURL, "/"), Token: session.Token},
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	hc.Timeout = Timeout
	c.http = &hc
	return c
}

// Session returns the session the client was built with.
func (c *Client) Session() Session { return c.session }

// APIError is a non-2xx reply.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

type requestOption func(*http.Request)

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Do sends body as JSON and decodes the reply into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...requestOption) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.session.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Details = body.Details
	}
	return apiErr
}

// listEnvelope mirrors dto.ListResponse with typed items.
type listEnvelope[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
}
