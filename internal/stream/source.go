// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"io"

	"github.com/wingedpig/runfeed/internal/feed"
	"github.com/wingedpig/runfeed/internal/replay"
	"github.com/wingedpig/runfeed/pkg/client"
)

// StartRun returns a StartFunc that opens the live stream for a new run.
func StartRun(runs *client.RunClient, req client.StreamRequest) StartFunc {
	return func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := runs.Stream(ctx, req)
		if err != nil {
			return nil, classifyClientErr(err)
		}
		return resp.Body, nil
	}
}

// StartResume returns a StartFunc that submits a resume answer and opens
// the response stream.
func StartResume(runs *client.RunClient, req client.ResumeRequest) StartFunc {
	return func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := runs.Resume(ctx, req)
		if err != nil {
			return nil, classifyClientErr(err)
		}
		return resp.Body, nil
	}
}

// ClientFetcher adapts the API client to the recovery layer.
func ClientFetcher(runs *client.RunClient) replay.Fetcher {
	return replay.FetcherFunc(func(ctx context.Context, runID feed.ID, afterEventID string, limit int) ([]replay.Item, error) {
		items, err := runs.Replay(ctx, string(runID), afterEventID, limit)
		if err != nil {
			return nil, err
		}
		out := make([]replay.Item, len(items))
		for i, item := range items {
			out[i] = replay.Item{EventID: item.EventID, Payload: item.Payload}
		}
		return out, nil
	})
}

// classifyClientErr maps client-level failures onto the transport error
// taxonomy.
func classifyClientErr(err error) error {
	switch e := err.(type) {
	case *client.APIError:
		return &TransportError{Status: e.Status, Message: e.Message, Err: err}
	case *client.BadContentTypeError:
		return &TransportError{Message: e.Error(), Err: err}
	default:
		return &TransportError{Err: err}
	}
}
