// Package oaztest provides test helpers for exercising oaz routers over a
// real HTTP server.
package oaztest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopstic/oaz"
)

// Server wraps an httptest.Server serving a router.
type Server struct {
	*httptest.Server
}

// NewServer starts a test server for the router and closes it with the test.
func NewServer(t testing.TB, rt *oaz.Router) *Server {
	t.Helper()
	srv := httptest.NewServer(rt)
	t.Cleanup(srv.Close)
	return &Server{Server: srv}
}

// Response holds a decoded JSON response.
type Response struct {
	Status  int
	Headers http.Header
	Body    any
	Raw     *http.Response
}

// Do sends a request with an optional JSON body and decodes the JSON
// response body into Response.Body.
func (s *Server) Do(t testing.TB, method, path string, body any) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("oaztest: marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.URL+path, reqBody)
	if err != nil {
		t.Fatalf("oaztest: create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("oaztest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("oaztest: close body: %v", closeErr)
		}
	}()

	result := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Raw:     resp,
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("oaztest: read body: %v", err)
	}
	if len(data) > 0 {
		var decoded any
		if jerr := json.Unmarshal(data, &decoded); jerr == nil {
			result.Body = decoded
		} else {
			result.Body = string(data)
		}
	}
	return result
}

// Get sends a GET request.
func (s *Server) Get(t testing.TB, path string) *Response {
	t.Helper()
	return s.Do(t, http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON body.
func (s *Server) Post(t testing.TB, path string, body any) *Response {
	t.Helper()
	return s.Do(t, http.MethodPost, path, body)
}
