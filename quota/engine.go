// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quorum/metrics"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/store"
)

// Payments is the part of the payment ledger an upgrade drives.
type Payments interface {
	CreatePaymentRecord(ctx context.Context, agentID, transactionID string) (models.PaymentRecord, error)
	ConfirmPayment(ctx context.Context, paymentID string) (models.PaymentRecord, error)
}

// Engine owns agent plans and poll inventories and enforces tier limits.
//
// Methods taking a store.Tx assume the caller already holds the agent's
// lock and let another ledger charge quota inside its own transaction.
type Engine struct {
	store    store.Store
	locks    *store.KeyLocker
	payments Payments
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewEngine(st store.Store, locks *store.KeyLocker, payments Payments, m *metrics.Metrics) *Engine {
	return &Engine{
		store:    st,
		locks:    locks,
		payments: payments,
		metrics:  m,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// AgentLockKey is the lock key guarding an agent's plan and inventory.
func AgentLockKey(agentID string) string {
	return store.Key(store.BucketPlans, agentID)
}

func (e *Engine) lockAgent(agentID string) func() {
	return e.locks.Lock(AgentLockKey(agentID))
}

func (e *Engine) defaultPlan(agentID string) models.AgentPlan {
	return models.AgentPlan{
		AgentID:       agentID,
		Plan:          models.TierFree,
		LastVoteReset: e.now().UTC(),
	}
}

// loadPlan returns the stored plan or an unsaved default.
func (e *Engine) loadPlan(tx store.Tx, agentID string) (models.AgentPlan, bool, error) {
	plan, err := store.GetJSON[models.AgentPlan](tx, store.BucketPlans, agentID)
	if errors.Is(err, store.ErrNotFound) {
		return e.defaultPlan(agentID), false, nil
	}
	if err != nil {
		return models.AgentPlan{}, false, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, true, nil
}

func savePlan(tx store.Tx, plan models.AgentPlan) error {
	return store.PutJSON(tx, store.BucketPlans, "", plan.AgentID, plan)
}

// resetDue reports whether last falls in an earlier calendar month than now.
func resetDue(last, now time.Time) bool {
	l, n := last.UTC(), now.UTC()
	return l.Year() != n.Year() || l.Month() != n.Month()
}

func (e *Engine) applyReset(plan *models.AgentPlan) bool {
	now := e.now()
	if !resetDue(plan.LastVoteReset, now) {
		return false
	}
	plan.VoteCount = 0
	plan.LastVoteReset = now.UTC()
	return true
}

func countPolls(tx store.Tx, agentID string) (int, error) {
	n := 0
	err := tx.Scan(store.BucketAgentPolls, agentID, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

func (e *Engine) reject(err error) error {
	var qe *QuotaError
	if errors.As(err, &qe) {
		e.metrics.QuotaRejected(qe.Kind)
		slog.Warn("quota exceeded", "kind", qe.Kind, "limit", qe.Limit.String(), "tier", qe.Tier)
	}
	return err
}

// CheckCreatePoll fails with a QuotaError when the agent may not create a
// poll with the given number of options and tags. It does not write.
func (e *Engine) CheckCreatePoll(tx store.Tx, agentID string, options, tags int) error {
	plan, _, err := e.loadPlan(tx, agentID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan.Plan)

	polls, err := countPolls(tx, agentID)
	if err != nil {
		return fmt.Errorf("failed to count polls: %w", err)
	}
	if limits.MaxPolls.Reached(polls) {
		return e.reject(exceeded(models.QuotaPolls, limits.MaxPolls, plan.Plan))
	}
	if limits.MaxOptions.Exceeds(options) {
		return e.reject(exceeded(models.QuotaOptions, limits.MaxOptions, plan.Plan))
	}
	if limits.MaxTags.Exceeds(tags) {
		return e.reject(exceeded(models.QuotaTags, limits.MaxTags, plan.Plan))
	}
	return nil
}

// TrackPollCreationTx appends pollID to the agent's inventory.
func (e *Engine) TrackPollCreationTx(tx store.Tx, agentID, pollID string) error {
	plan, existed, err := e.loadPlan(tx, agentID)
	if err != nil {
		return err
	}
	if !existed {
		if err := savePlan(tx, plan); err != nil {
			return err
		}
	}
	return store.PutJSON(tx, store.BucketAgentPolls, agentID, agentID+"/"+pollID, pollID)
}

// TrackVoteTx charges one vote and one voter against the owner's plan.
func (e *Engine) TrackVoteTx(tx store.Tx, ownerID, voterID string) error {
	plan, _, err := e.loadPlan(tx, ownerID)
	if err != nil {
		return err
	}
	e.applyReset(&plan)

	limits := LimitsFor(plan.Plan)
	if limits.MaxVotesPerMonth.Reached(plan.VoteCount) {
		return e.reject(exceeded(models.QuotaVotes, limits.MaxVotesPerMonth, plan.Plan))
	}
	if limits.MaxVoters.Reached(plan.VoterCount) {
		return e.reject(exceeded(models.QuotaVoters, limits.MaxVoters, plan.Plan))
	}

	plan.VoteCount++
	plan.VoterCount++
	if err := savePlan(tx, plan); err != nil {
		return err
	}

	slog.Debug("vote charged", "owner", ownerID, "voter", voterID, "vote_count", plan.VoteCount)
	return nil
}

// GetOrCreateAgentPlan returns the agent's plan, or a default free plan
// that is not saved until the first mutation.
func (e *Engine) GetOrCreateAgentPlan(ctx context.Context, agentID string) (models.AgentPlan, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.AgentPlan{}, models.Invalid("agent_id", "is required")
	}

	var plan models.AgentPlan
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		plan, _, err = e.loadPlan(tx, agentID)
		return err
	})
	return plan, err
}

// ResetMonthlyVotesIfDue zeroes the monthly vote counter when the calendar
// month changed since the last reset.
func (e *Engine) ResetMonthlyVotesIfDue(ctx context.Context, agentID string) (models.AgentPlan, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.AgentPlan{}, models.Invalid("agent_id", "is required")
	}

	unlock := e.lockAgent(agentID)
	defer unlock()

	var plan models.AgentPlan
	err := e.store.Update(ctx, func(tx store.Tx) error {
		var err error
		plan, _, err = e.loadPlan(tx, agentID)
		if err != nil {
			return err
		}
		if !e.applyReset(&plan) {
			return nil
		}
		slog.Info("monthly votes reset", "agent_id", agentID)
		return savePlan(tx, plan)
	})
	if err != nil {
		return models.AgentPlan{}, err
	}
	return plan, nil
}

// GetAgentPlanInfo returns the agent's plan with any due monthly reset
// applied.
func (e *Engine) GetAgentPlanInfo(ctx context.Context, agentID string) (models.AgentPlan, error) {
	return e.ResetMonthlyVotesIfDue(ctx, agentID)
}

// CheckCreatePollLimits is CheckCreatePoll in its own read transaction.
func (e *Engine) CheckCreatePollLimits(ctx context.Context, agentID string, options, tags int) error {
	if strings.TrimSpace(agentID) == "" {
		return models.Invalid("agent_id", "is required")
	}
	return e.store.View(ctx, func(tx store.Tx) error {
		return e.CheckCreatePoll(tx, agentID, options, tags)
	})
}

// TrackPollCreation records pollID in the agent's inventory.
func (e *Engine) TrackPollCreation(ctx context.Context, agentID, pollID string) error {
	if strings.TrimSpace(agentID) == "" || pollID == "" {
		return models.Invalid("agent_id", "and poll_id are required")
	}

	unlock := e.lockAgent(agentID)
	defer unlock()

	return e.store.Update(ctx, func(tx store.Tx) error {
		return e.TrackPollCreationTx(tx, agentID, pollID)
	})
}

// TrackVote charges a vote against ownerID's plan.
func (e *Engine) TrackVote(ctx context.Context, ownerID, voterID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return models.Invalid("agent_id", "is required")
	}

	unlock := e.lockAgent(ownerID)
	defer unlock()

	return e.store.Update(ctx, func(tx store.Tx) error {
		return e.TrackVoteTx(tx, ownerID, voterID)
	})
}

// GetAgentPolls returns the ids of polls the agent created, oldest first.
func (e *Engine) GetAgentPolls(ctx context.Context, agentID string) ([]string, error) {
	var ids []string
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		ids, err = store.ScanJSON[string](tx, store.BucketAgentPolls, agentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agent polls: %w", err)
	}
	return ids, nil
}

// UpgradeToPremium moves a free agent to premium without a payment.
func (e *Engine) UpgradeToPremium(ctx context.Context, agentID string) (models.AgentPlan, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.AgentPlan{}, models.Invalid("agent_id", "is required")
	}

	unlock := e.lockAgent(agentID)
	defer unlock()

	return e.upgrade(ctx, agentID)
}

func (e *Engine) upgrade(ctx context.Context, agentID string) (models.AgentPlan, error) {
	var plan models.AgentPlan
	err := e.store.Update(ctx, func(tx store.Tx) error {
		var err error
		plan, _, err = e.loadPlan(tx, agentID)
		if err != nil {
			return err
		}
		if plan.Plan == models.TierPremium {
			return ErrAlreadyPremium
		}
		now := e.now().UTC()
		plan.Plan = models.TierPremium
		plan.UpgradedAt = &now
		return savePlan(tx, plan)
	})
	if err != nil {
		return models.AgentPlan{}, err
	}

	e.metrics.Upgraded()
	slog.Info("plan upgraded", "agent_id", agentID, "plan", plan.Plan)
	return plan, nil
}

// UpgradeToPremiumWithPayment records and confirms a payment, then upgrades
// the agent. The plan is left unchanged unless the payment completes.
func (e *Engine) UpgradeToPremiumWithPayment(ctx context.Context, agentID, transactionID string) (models.AgentPlan, models.PaymentRecord, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.AgentPlan{}, models.PaymentRecord{}, models.Invalid("agent_id", "is required")
	}
	if strings.TrimSpace(transactionID) == "" {
		return models.AgentPlan{}, models.PaymentRecord{}, models.Invalid("transaction_id", "is required")
	}

	unlock := e.lockAgent(agentID)
	defer unlock()

	current, err := e.GetOrCreateAgentPlan(ctx, agentID)
	if err != nil {
		return models.AgentPlan{}, models.PaymentRecord{}, err
	}
	if current.Plan == models.TierPremium {
		return models.AgentPlan{}, models.PaymentRecord{}, ErrAlreadyPremium
	}

	rec, err := e.payments.CreatePaymentRecord(ctx, agentID, transactionID)
	if err != nil {
		return models.AgentPlan{}, models.PaymentRecord{}, fmt.Errorf("failed to create payment: %w", err)
	}

	confirmed, err := e.payments.ConfirmPayment(ctx, rec.ID)
	if err != nil {
		slog.Warn("payment confirmation failed", "agent_id", agentID, "payment_id", rec.ID, "error", err)
		return models.AgentPlan{}, rec, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}
	if confirmed.Status != models.PaymentCompleted {
		slog.Warn("payment not completed", "agent_id", agentID, "payment_id", rec.ID, "status", confirmed.Status)
		return models.AgentPlan{}, confirmed, fmt.Errorf("%w: payment %s is %s", ErrPaymentVerificationFailed, rec.ID, confirmed.Status)
	}

	plan, err := e.upgrade(ctx, agentID)
	if err != nil {
		return models.AgentPlan{}, confirmed, err
	}
	return plan, confirmed, nil
}

// GetPlanUsage projects the agent's counters against its tier limits.
func (e *Engine) GetPlanUsage(ctx context.Context, agentID string) (models.PlanUsage, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.PlanUsage{}, models.Invalid("agent_id", "is required")
	}

	var (
		plan  models.AgentPlan
		polls int
	)
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		if plan, _, err = e.loadPlan(tx, agentID); err != nil {
			return err
		}
		polls, err = countPolls(tx, agentID)
		return err
	})
	if err != nil {
		return models.PlanUsage{}, fmt.Errorf("failed to load usage: %w", err)
	}

	// a due reset is reflected without being saved
	e.applyReset(&plan)

	limits := LimitsFor(plan.Plan)
	return models.PlanUsage{
		Plan:                  plan.Plan,
		MaxPolls:              limits.MaxPolls,
		MaxOptions:            limits.MaxOptions,
		MaxTags:               limits.MaxTags,
		CurrentPolls:          polls,
		MaxVotesPerMonth:      limits.MaxVotesPerMonth,
		CurrentVotesThisMonth: plan.VoteCount,
		MaxVoters:             limits.MaxVoters,
		CurrentVoters:         plan.VoterCount,
	}, nil
}
