// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/quota"
	"github.com/danielhkuo/quorum/voting"
)

// requireAgent resolves the calling agent or writes 401.
func requireAgent(identity auth.IdentityProvider, w http.ResponseWriter, r *http.Request) (string, bool) {
	agentID, err := identity.AgentID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return agentID, true
}

// writeError maps a domain error onto a status code and error body.
func writeError(w http.ResponseWriter, err error, msg string) {
	var (
		verr *models.ValidationError
		qerr *quota.QuotaError
	)
	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &qerr):
		limit := qerr.Limit
		middleware.JSONResponse(w, http.StatusPaymentRequired, models.ErrorResponse{
			Error:   http.StatusText(http.StatusPaymentRequired),
			Message: qerr.Error(),
			Kind:    qerr.Kind,
			Limit:   &limit,
		})
	case errors.Is(err, quota.ErrPaymentVerificationFailed):
		middleware.ErrorResponse(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, voting.ErrSelfVote):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrRuleViolation):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	default:
		slog.Error(msg, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msg)
	}
}
