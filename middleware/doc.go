// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /polls", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (duration_ms).

# CORS

CORS wraps the whole mux using github.com/rs/cors. Any origin is reflected
with credentials allowed; Content-Type and Authorization may be sent.

	server := http.Server{Handler: middleware.CORS(mux)}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

GetClientIP honours X-Forwarded-For, then X-Real-IP, then RemoteAddr.
*/
package middleware
