// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/quota"
	"github.com/danielhkuo/quorum/voting"
)

type PlanHandler struct {
	quota    *quota.Engine
	ledger   *voting.Ledger
	identity auth.IdentityProvider
}

func NewPlanHandler(engine *quota.Engine, ledger *voting.Ledger, identity auth.IdentityProvider) *PlanHandler {
	return &PlanHandler{quota: engine, ledger: ledger, identity: identity}
}

// GetPlan handles GET /agents/me/plan
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	plan, err := h.quota.GetAgentPlanInfo(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to load plan")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, plan)
}

// GetUsage handles GET /agents/me/usage
func (h *PlanHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	usage, err := h.quota.GetPlanUsage(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to load usage")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, usage)
}

// GetMyPolls handles GET /agents/me/polls
func (h *PlanHandler) GetMyPolls(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	ids, err := h.quota.GetAgentPolls(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to list polls")
		return
	}

	polls := make([]models.Poll, 0, len(ids))
	for _, id := range ids {
		poll, ok, err := h.ledger.GetPoll(r.Context(), id)
		if err != nil {
			writeError(w, err, "Failed to load poll")
			return
		}
		if !ok {
			slog.Warn("inventory references missing poll", "agent_id", agentID, "poll_id", id)
			continue
		}
		polls = append(polls, poll)
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// Upgrade handles POST /agents/me/upgrade
func (h *PlanHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	var req models.UpgradeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	plan, rec, err := h.quota.UpgradeToPremiumWithPayment(r.Context(), agentID, req.TransactionID)
	if err != nil {
		writeError(w, err, "Failed to upgrade plan")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpgradeResponse{
		AgentPlan: plan,
		PaymentID: rec.ID,
	})
}
