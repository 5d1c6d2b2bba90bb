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

type PollHandler struct {
	ledger   *voting.Ledger
	identity auth.IdentityProvider
}

func NewPollHandler(ledger *voting.Ledger, identity auth.IdentityProvider) *PollHandler {
	return &PollHandler{ledger: ledger, identity: identity}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.ledger.CreatePoll(r.Context(), voting.CreatePollInput{
		Question:    req.Question,
		Description: req.Description,
		Options:     req.Options,
		Tags:        req.Tags,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   agentID,
	})
	if err != nil {
		writeError(w, err, "Failed to create poll")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// ListPolls handles GET /polls, optionally filtered by ?tag= and ?agent=
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	agent := r.URL.Query().Get("agent")

	var (
		polls []models.Poll
		err   error
	)
	switch {
	case agent != "":
		polls, err = h.ledger.GetPollsByAgent(r.Context(), agent)
	case tag != "":
		polls, err = h.ledger.GetPollsByTag(r.Context(), tag)
	default:
		polls, err = h.ledger.GetAllPolls(r.Context())
	}
	if err != nil {
		writeError(w, err, "Failed to list polls")
		return
	}

	// both filters narrow together
	if agent != "" && tag != "" {
		filtered := polls[:0]
		for _, p := range polls {
			if p.HasTag(tag) {
				filtered = append(filtered, p)
			}
		}
		polls = filtered
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok, err := h.ledger.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to load poll")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// GetPollOptions handles GET /polls/{id}/options
func (h *PollHandler) GetPollOptions(w http.ResponseWriter, r *http.Request) {
	options, ok, err := h.ledger.GetPollOptions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to load options")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, options)
}

// GetOptionVotes handles GET /polls/{id}/options/{option}/votes
func (h *PollHandler) GetOptionVotes(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	optionID := r.PathValue("option")

	votes, ok, err := h.ledger.GetVoteCountForOption(r.Context(), pollID, optionID)
	if err != nil {
		writeError(w, err, "Failed to load vote count")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll or option not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteCountResponse{
		PollID:   pollID,
		OptionID: optionID,
		Votes:    votes,
	})
}

// GetPollVotes handles GET /polls/{id}/votes
func (h *PollHandler) GetPollVotes(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	if _, ok, err := h.ledger.GetPoll(r.Context(), pollID); err != nil || !ok {
		if err != nil {
			writeError(w, err, "Failed to load poll")
			return
		}
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	votes, err := h.ledger.GetVotesForPoll(r.Context(), pollID)
	if err != nil {
		writeError(w, err, "Failed to list votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, votes)
}
