// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// RunClient provides access to run operations.
//
// Access it through [Client.Runs]:
//
//	resp, err := c.Runs.Stream(ctx, client.StreamRequest{TaskID: "8", Message: "fix the tests"})
type RunClient struct {
	c *Client
}

// StreamRequest starts a new run for a task.
type StreamRequest struct {
	// TaskID identifies the task the run belongs to.
	TaskID string `json:"task_id"`

	// Message is the user instruction that starts the run.
	Message string `json:"message"`
}

// ResumeRequest answers a paused run.
type ResumeRequest struct {
	// RunID identifies the paused run.
	RunID string `json:"run_id"`

	// Message is the user's answer.
	Message string `json:"message"`

	// PromptToken scopes the answer to a specific pause point, when the
	// pause carried one.
	PromptToken string `json:"prompt_token,omitempty"`

	// SessionKey routes the answer to the correct suspended session.
	SessionKey string `json:"session_key,omitempty"`
}

// ReplayItem is one historical event from the replay endpoint.
type ReplayItem struct {
	EventID string          `json:"event_id"`
	Payload json.RawMessage `json:"payload"`
}

// StreamResponse is an open text/event-stream. The caller owns Body and
// must close it.
type StreamResponse struct {
	Body io.ReadCloser
}

// Close closes the underlying body.
func (r *StreamResponse) Close() error {
	return r.Body.Close()
}

// Stream starts a run and opens its live event stream.
func (r *RunClient) Stream(ctx context.Context, req StreamRequest) (*StreamResponse, error) {
	return r.openStream(ctx, "/api/v1/runs/stream", req)
}

// Resume submits an answer for a paused run. The response is a new
// stream using the same event schema as Stream.
func (r *RunClient) Resume(ctx context.Context, req ResumeRequest) (*StreamResponse, error) {
	path := fmt.Sprintf("/api/v1/runs/%s/resume", url.PathEscape(req.RunID))
	return r.openStream(ctx, path, req)
}

// Replay fetches a batch of historical events for a run.
// afterEventID="" requests from the beginning of retained history.
func (r *RunClient) Replay(ctx context.Context, runID, afterEventID string, limit int) ([]ReplayItem, error) {
	path := fmt.Sprintf("/api/v1/runs/%s/events", url.PathEscape(runID))
	params := url.Values{}
	if afterEventID != "" {
		params.Set("after", afterEventID)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var out struct {
		Items []ReplayItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse replay batch: %w", err)
	}
	return out.Items, nil
}

// openStream POSTs a JSON body and validates the streamed response.
func (r *RunClient) openStream(ctx context.Context, path string, body interface{}) (*StreamResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.c.streamer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ct != "text/event-stream" {
		resp.Body.Close()
		return nil, &BadContentTypeError{ContentType: resp.Header.Get("Content-Type")}
	}

	return &StreamResponse{Body: resp.Body}, nil
}
