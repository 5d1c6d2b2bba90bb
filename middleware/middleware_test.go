// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quorum/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"p1"}`},
		{"PaymentRequired", http.StatusPaymentRequired, `{"error":"Payment Required"}`},
		{"Conflict", http.StatusConflict, "duplicate"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/polls", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if !called {
				t.Error("Expected handler to be called")
			}
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	limit := models.Limited(5)

	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "vote count",
			statusCode: http.StatusOK,
			data:       models.VoteCountResponse{PollID: "p1", OptionID: "o1", Votes: 3},
			expected:   `{"poll_id":"p1","option_id":"o1","votes":3}`,
		},
		{
			name:       "quota error carries kind and limit",
			statusCode: http.StatusPaymentRequired,
			data: models.ErrorResponse{
				Error:   "Payment Required",
				Message: "free plan allows at most 5 polls per agent",
				Kind:    models.QuotaPolls,
				Limit:   &limit,
			},
			expected: `{"error":"Payment Required","message":"free plan allows at most 5 polls per agent","kind":"polls","limit":5}`,
		},
		{
			name:       "unlimited limit",
			statusCode: http.StatusOK,
			data:       map[string]models.Limit{"max_polls": models.Unlimited},
			expected:   `{"max_polls":"unlimited"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b"},
			expected:   `["a","b"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			// Encode appends a newline
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		statusCode    int
		message       string
		expectedError string
	}{
		{http.StatusBadRequest, "question is required", "Bad Request"},
		{http.StatusUnauthorized, "missing bearer token", "Unauthorized"},
		{http.StatusForbidden, "poll creators cannot vote on their own polls", "Forbidden"},
		{http.StatusConflict, "voter has already voted in this poll", "Conflict"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedError, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
			if resp.Kind != "" || resp.Limit != nil {
				t.Error("Plain errors should not carry quota fields")
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"question":"Lunch?","options":[{"label":"A"},{"id":"b","label":"B","votes":9}],"tags":["x"]}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreatePollRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Question != "Lunch?" {
			t.Errorf("Expected question 'Lunch?', got '%s'", parsed.Question)
		}
		if len(parsed.Options) != 2 || parsed.Options[1].ID != "b" {
			t.Errorf("Unexpected options: %+v", parsed.Options)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid`))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/polls", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Expected origin to be reflected, got '%s'", got)
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Error("Expected POST in allowed methods")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
			t.Error("Expected Authorization in allowed headers")
		}
	})

	t.Run("regular request with origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Expected origin to be reflected, got '%s'", got)
		}
	})

	t.Run("request without origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Expected no CORS headers without an origin, got '%s'", got)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "first forwarded address wins",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1", "X-Real-IP": "203.0.113.9"},
			remoteAddr: "10.0.0.1:40000",
			expectedIP: "198.51.100.7",
		},
		{
			name:       "real ip header",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			remoteAddr: "10.0.0.1:40000",
			expectedIP: "203.0.113.9",
		},
		{
			name:       "remote address port stripped",
			remoteAddr: "192.0.2.44:51515",
			expectedIP: "192.0.2.44",
		},
		{
			name:       "remote address without port",
			remoteAddr: "192.0.2.44",
			expectedIP: "192.0.2.44",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}
