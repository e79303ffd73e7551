// Package mocks provides in-process stand-ins for the chat and paging
// services that integrations deliver to.
package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Request is one delivery captured by a MockService.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the captured body into a generic map.
func (r Request) JSON() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MockService records every request it receives and answers with a
// configurable status code.
type MockService struct {
	name   string
	server *httptest.Server

	mu       sync.Mutex
	requests []Request
	status   int
	notify   chan struct{}
}

// NewMockService starts a recording server. Close it when done.
func NewMockService(name string) *MockService {
	m := &MockService{
		name:   name,
		status: http.StatusOK,
		notify: make(chan struct{}, 64),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *MockService) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	status := m.status
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}

	w.WriteHeader(status)
	if status >= 200 && status < 300 {
		_, _ = w.Write([]byte("ok"))
		return
	}
	_, _ = w.Write([]byte(`{"error":"mock failure"}`))
}

// Name returns the service name.
func (m *MockService) Name() string {
	return m.name
}

// URL returns the base URL of the server.
func (m *MockService) URL() string {
	return m.server.URL
}

// SetStatus sets the status code returned for subsequent requests.
func (m *MockService) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Requests returns a copy of the captured requests.
func (m *MockService) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Count returns the number of captured requests.
func (m *MockService) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Last returns the most recent request.
func (m *MockService) Last() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Reset clears captured requests and restores a 200 response.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.status = http.StatusOK
}

// WaitForRequests blocks until at least n requests arrived or timeout elapses.
func (m *MockService) WaitForRequests(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if m.Count() >= n {
			return true
		}
		select {
		case <-m.notify:
		case <-deadline.C:
			return m.Count() >= n
		}
	}
}

// Close shuts the server down.
func (m *MockService) Close() {
	m.server.Close()
}
