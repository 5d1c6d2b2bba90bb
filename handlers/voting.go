// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/voting"
)

type VotingHandler struct {
	ledger   *voting.Ledger
	identity auth.IdentityProvider
}

func NewVotingHandler(ledger *voting.Ledger, identity auth.IdentityProvider) *VotingHandler {
	return &VotingHandler{ledger: ledger, identity: identity}
}

// CastVote handles POST /polls/{id}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	poll, ok, err := h.ledger.CastVote(r.Context(), r.PathValue("id"), req.OptionID, voterID)
	if err != nil {
		writeError(w, err, "Failed to cast vote")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll or option not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// HasVoted handles GET /polls/{id}/voted
func (h *VotingHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	pollID := r.PathValue("id")
	if _, ok, err := h.ledger.GetPoll(r.Context(), pollID); err != nil || !ok {
		if err != nil {
			writeError(w, err, "Failed to load poll")
			return
		}
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	voted, err := h.ledger.HasVoted(r.Context(), voterID, pollID)
	if err != nil {
		writeError(w, err, "Failed to check vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HasVotedResponse{
		PollID: pollID,
		Voted:  voted,
	})
}
