// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package feedtest provides a scriptable in-process feed service for
// tests: the stream, replay and resume endpoints backed by canned
// frames.
package feedtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

// Item mirrors one replay endpoint entry.
type Item struct {
	EventID string          `json:"event_id"`
	Payload json.RawMessage `json:"payload"`
}

// Server is a fake feed service.
type Server struct {
	mu      sync.Mutex
	streams map[string][]string // task id -> raw SSE blocks
	resumes map[string][]string // run id -> raw SSE blocks
	replays map[string][]Item   // run id -> full history

	// StreamContentType overrides the stream response content type, for
	// exercising the hard-error path.
	StreamContentType string

	srv *httptest.Server
}

// New starts a fake feed service.
func New() *Server {
	s := &Server{
		streams: make(map[string][]string),
		resumes: make(map[string][]string),
		replays: make(map[string][]Item),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/runs/stream", s.handleStream).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/runs/{run}/resume", s.handleResume).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/runs/{run}/events", s.handleReplay).Methods(http.MethodGet)

	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// SetStream scripts the SSE blocks returned when a run is started for
// taskID. Each block is written verbatim; include the trailing blank
// line separator.
func (s *Server) SetStream(taskID string, blocks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[taskID] = blocks
}

// SetResume scripts the SSE blocks returned when runID is resumed.
func (s *Server) SetResume(runID string, blocks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[runID] = blocks
}

// SetReplay scripts runID's full retained history.
func (s *Server) SetReplay(runID string, items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replays[runID] = items
}

// Event formats a JSON payload as one SSE block.
func Event(payload string) string {
	return "data: " + payload + "\n\n"
}

// NamedEvent formats a JSON payload as one SSE block with an event name.
func NamedEvent(name, payload string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	blocks, ok := s.streams[req.TaskID]
	ct := s.StreamContentType
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no stream scripted for task "+req.TaskID)
		return
	}
	writeBlocks(w, ct, blocks)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run"]

	s.mu.Lock()
	blocks, ok := s.resumes[runID]
	ct := s.StreamContentType
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusConflict, "not_waiting", "run "+runID+" is not paused")
		return
	}
	writeBlocks(w, ct, blocks)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run"]
	after := r.URL.Query().Get("after")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	history := s.replays[runID]
	s.mu.Unlock()

	// Replay semantics: everything strictly after the cursor; an empty
	// cursor means the beginning of retained history.
	items := history
	if after != "" {
		items = nil
		for i, item := range history {
			if item.EventID == after {
				items = history[i+1:]
				break
			}
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
}

func writeBlocks(w http.ResponseWriter, contentType string, blocks []string) {
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for _, block := range blocks {
		fmt.Fprint(w, block)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
