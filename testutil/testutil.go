// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/db"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/store"
)

// TestDBURL is an in-memory SQLite database, private to one connection
const TestDBURL = ":memory:"

// SetupTestStore creates a fresh SQLite-backed store with the full schema
func SetupTestStore(t *testing.T) store.Store {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	st, err := store.NewSQL(context.Background(), conn)
	if err != nil {
		conn.Close()
		t.Fatalf("Failed to open record store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  TestDBURL,
		DatabaseType: db.TypeSQLite,
		TokenSecret:  "test-token-secret",
		PremiumPrice: 1000,
	}
}

// AgentToken mints a bearer token for agentID signed with the config secret
func AgentToken(t *testing.T, cfg cliparse.Config, agentID string) string {
	t.Helper()

	token, err := auth.IssueAgentToken(agentID, cfg.TokenSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue agent token: %v", err)
	}
	return token
}

// AuthHeaders returns request headers authenticating as agentID
func AuthHeaders(t *testing.T, cfg cliparse.Config, agentID string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + AgentToken(t, cfg, agentID)}
}

// PollRequest builds a valid poll creation body with the given option labels
func PollRequest(labels ...string) models.CreatePollRequest {
	opts := make([]models.OptionInput, len(labels))
	for i, l := range labels {
		opts[i] = models.OptionInput{Label: l}
	}
	return models.CreatePollRequest{
		Question:    "Where should we eat?",
		Description: "Team lunch on Friday",
		Options:     opts,
		Tags:        []string{"food"},
		StartDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
