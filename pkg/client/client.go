// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client for the run feed API.
//
// The feed service exposes three endpoints: starting a streamed run,
// fetching replay batches of a run's event history, and submitting a
// resume answer for a paused run. Create a client pointing at the
// service:
//
//	c := client.New("http://localhost:8080")
//
// Streaming endpoints return a [StreamResponse] whose body is a
// text/event-stream; the protocol layer consumes it incrementally:
//
//	resp, err := c.Runs.Stream(ctx, client.StreamRequest{TaskID: "8", Message: "go"})
//
// # Error Handling
//
// JSON endpoints return *APIError values for service-reported failures.
// Streaming endpoints return *BadContentTypeError when the service
// responds with anything other than text/event-stream, which the
// consumer treats as a hard transport error.
//
// # Context Support
//
// All methods accept a context.Context. Streaming requests deliberately
// use a client without a global timeout, since a run may stream for a
// long time; cancel the context to abandon a stream.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a run feed API client.
//
// Safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
	streamer   *http.Client

	// Runs provides access to run streaming, replay and resume.
	Runs *RunClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a client with the given base URL and options.
//
// Any trailing slash on baseURL is removed. By default JSON requests use
// a 30-second timeout and streaming requests have no timeout.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		streamer: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Runs = &RunClient{c: c}
	return c
}

// WithHTTPClient sets a custom HTTP client for JSON requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStreamClient sets a custom HTTP client for streaming requests.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) {
		c.streamer = hc
	}
}

// WithTimeout sets the timeout for JSON requests. Streaming requests are
// unaffected.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the feed service.
type APIError struct {
	// Code is a machine-readable error code when the service provides
	// one.
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Status is the HTTP status the error arrived with.
	Status int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// BadContentTypeError is returned when a streaming endpoint responds
// with something other than text/event-stream.
type BadContentTypeError struct {
	ContentType string
}

// Error implements the error interface.
func (e *BadContentTypeError) Error() string {
	return fmt.Sprintf("expected text/event-stream, got %q", e.ContentType)
}

// errorFromResponse builds an *APIError from a non-2xx response body.
// The service emits {"error":{"code","message"}} or a bare
// {"message": ...}; anything else becomes the raw body text.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error   *APIError `json:"error"`
		Message string    `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil {
			envelope.Error.Status = resp.StatusCode
			return envelope.Error
		}
		if envelope.Message != "" {
			return &APIError{Message: envelope.Message, Status: resp.StatusCode}
		}
	}
	return &APIError{Message: strings.TrimSpace(string(body)), Status: resp.StatusCode}
}
