// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/library-index/pkg/types"
)

func newTestServer() http.Handler {
	return New(types.EngineConfig{}, nil).Router()
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestResearchRejectsBadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader("{not json"))
	newTestServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResearchRequiresQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"max_workers": 2}`))
	newTestServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !strings.Contains(body["error"], "query") {
		t.Errorf("error = %q, want query-required message", body["error"])
	}
}

func TestResearchFailedSessionIs502(t *testing.T) {
	// The zero config has no model provider, so initialization fails and
	// the session terminates in the failed state.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"query":"anything"}`))
	newTestServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var body struct {
		SessionID string `json:"session_id"`
		State     string `json:"state"`
		Report    string `json:"report"`
		Error     string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.State != "failed" {
		t.Errorf("state = %q, want failed", body.State)
	}
	if body.SessionID == "" {
		t.Error("session_id empty")
	}
	if body.Error == "" {
		t.Error("error detail empty")
	}
	if !strings.Contains(body.Report, "## Failure") {
		t.Errorf("report missing failure section:\n%s", body.Report)
	}
}
