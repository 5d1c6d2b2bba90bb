// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/metrics"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/quota"
	"github.com/danielhkuo/quorum/store"
)

var (
	ErrSelfVote      = fmt.Errorf("%w: poll creators cannot vote on their own polls", models.ErrRuleViolation)
	ErrDuplicateVote = fmt.Errorf("%w: voter has already voted in this poll", models.ErrRuleViolation)
)

// Gate charges quota inside the ledger's transactions. The ledger holds
// the agent's quota.AgentLockKey lock while calling it.
type Gate interface {
	CheckCreatePoll(tx store.Tx, agentID string, options, tags int) error
	TrackPollCreationTx(tx store.Tx, agentID, pollID string) error
	TrackVoteTx(tx store.Tx, ownerID, voterID string) error
}

type CreatePollInput struct {
	Question    string
	Description string
	Options     []models.OptionInput
	Tags        []string
	StartDate   time.Time
	EndDate     time.Time
	CreatedBy   string
}

// Ledger owns polls, vote records and the voter index.
type Ledger struct {
	store   store.Store
	locks   *store.KeyLocker
	gate    Gate
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLedger builds a ledger. locks must be the locker the gate's owner
// uses so plan mutations serialize across both. A nil gate charges nothing.
func NewLedger(st store.Store, locks *store.KeyLocker, gate Gate, m *metrics.Metrics) *Ledger {
	return &Ledger{
		store:   st,
		locks:   locks,
		gate:    gate,
		metrics: m,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func voterKey(voterID, pollID string) string {
	return voterID + "/" + pollID
}

func validatePoll(in CreatePollInput) error {
	switch {
	case strings.TrimSpace(in.Question) == "":
		return models.Invalid("question", "is required")
	case strings.TrimSpace(in.Description) == "":
		return models.Invalid("description", "is required")
	case in.StartDate.IsZero():
		return models.Invalid("start_date", "is required")
	case in.EndDate.IsZero():
		return models.Invalid("end_date", "is required")
	case strings.TrimSpace(in.CreatedBy) == "":
		return models.Invalid("created_by", "is required")
	case len(in.Options) == 0:
		return models.Invalid("options", "must contain at least one option")
	}

	seen := make(map[string]bool, len(in.Options))
	for i, opt := range in.Options {
		if strings.TrimSpace(opt.Label) == "" {
			return models.Invalid(fmt.Sprintf("options[%d].label", i), "is required")
		}
		if opt.ID == "" {
			continue
		}
		if seen[opt.ID] {
			return models.Invalid(fmt.Sprintf("options[%d].id", i), "is duplicated")
		}
		seen[opt.ID] = true
	}
	return nil
}

// uniqueTags drops blank and repeated tags, keeping first occurrences.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func buildOptions(in []models.OptionInput) ([]models.PollOption, error) {
	taken := make(map[string]bool, len(in))
	for _, opt := range in {
		if opt.ID != "" {
			taken[opt.ID] = true
		}
	}

	options := make([]models.PollOption, 0, len(in))
	for _, opt := range in {
		id := opt.ID
		for id == "" || (opt.ID == "" && taken[id]) {
			var err error
			if id, err = auth.GenerateID(12); err != nil {
				return nil, err
			}
		}
		taken[id] = true
		options = append(options, models.PollOption{ID: id, Label: strings.TrimSpace(opt.Label)})
	}
	return options, nil
}

// CreatePoll validates and persists a poll after the creator's quota gate
// passes, then records it in the creator's inventory. All of it commits
// together.
func (l *Ledger) CreatePoll(ctx context.Context, in CreatePollInput) (models.Poll, error) {
	if err := validatePoll(in); err != nil {
		return models.Poll{}, err
	}

	pollID, err := auth.GenerateID(16)
	if err != nil {
		return models.Poll{}, err
	}
	options, err := buildOptions(in.Options)
	if err != nil {
		return models.Poll{}, err
	}

	now := l.now().UTC()
	poll := models.Poll{
		ID:          pollID,
		Question:    strings.TrimSpace(in.Question),
		Description: strings.TrimSpace(in.Description),
		Options:     options,
		Tags:        uniqueTags(in.Tags),
		Status:      models.StatusOpen,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   in.CreatedBy,
	}

	unlock := l.locks.Lock(quota.AgentLockKey(in.CreatedBy))
	defer unlock()

	err = l.store.Update(ctx, func(tx store.Tx) error {
		if l.gate != nil {
			if err := l.gate.CheckCreatePoll(tx, poll.CreatedBy, len(poll.Options), len(poll.Tags)); err != nil {
				return err
			}
		}
		if err := store.PutJSON(tx, store.BucketPolls, "", poll.ID, poll); err != nil {
			return err
		}
		if l.gate != nil {
			return l.gate.TrackPollCreationTx(tx, poll.CreatedBy, poll.ID)
		}
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	l.metrics.PollCreated()
	slog.Info("poll created", "poll_id", poll.ID, "created_by", poll.CreatedBy, "options", len(poll.Options))
	return poll, nil
}

// CastVote records voterID's vote for optionID. ok is false, with a nil
// error, when the poll or option does not exist.
func (l *Ledger) CastVote(ctx context.Context, pollID, optionID, voterID string) (models.Poll, bool, error) {
	switch {
	case pollID == "":
		return models.Poll{}, false, models.Invalid("poll_id", "is required")
	case optionID == "":
		return models.Poll{}, false, models.Invalid("option_id", "is required")
	case strings.TrimSpace(voterID) == "":
		return models.Poll{}, false, models.Invalid("voter_id", "is required")
	}

	poll, ok, err := l.GetPoll(ctx, pollID)
	if err != nil || !ok {
		return models.Poll{}, false, err
	}
	if _, ok := poll.Option(optionID); !ok {
		return models.Poll{}, false, nil
	}
	if poll.CreatedBy == voterID {
		l.metrics.VoteRejected("self_vote")
		return models.Poll{}, false, ErrSelfVote
	}

	unlock := l.locks.Lock(store.Key(store.BucketPolls, pollID), quota.AgentLockKey(poll.CreatedBy))
	defer unlock()

	vote := models.VoteRecord{
		ID:       uuid.New().String(),
		PollID:   pollID,
		OptionID: optionID,
		VoterID:  voterID,
	}

	err = l.store.Update(ctx, func(tx store.Tx) error {
		var err error
		poll, err = store.GetJSON[models.Poll](tx, store.BucketPolls, pollID)
		if err != nil {
			return err
		}

		voted, err := store.Exists(tx, store.BucketVoterIndex, voterKey(voterID, pollID))
		if err != nil {
			return err
		}
		if voted {
			return ErrDuplicateVote
		}

		if l.gate != nil {
			if err := l.gate.TrackVoteTx(tx, poll.CreatedBy, voterID); err != nil {
				return err
			}
		}

		for i := range poll.Options {
			if poll.Options[i].ID == optionID {
				poll.Options[i].Votes++
			}
		}
		now := l.now().UTC()
		poll.TotalVotes++
		poll.UpdatedAt = now
		vote.VotedAt = now

		if err := store.PutJSON(tx, store.BucketPolls, "", poll.ID, poll); err != nil {
			return err
		}
		if err := store.PutJSON(tx, store.BucketVotes, pollID, vote.ID, vote); err != nil {
			return err
		}
		return store.PutJSON(tx, store.BucketVoterIndex, voterID, voterKey(voterID, pollID), pollID)
	})
	if err != nil {
		var qe *quota.QuotaError
		switch {
		case errors.Is(err, ErrDuplicateVote):
			l.metrics.VoteRejected("duplicate")
		case errors.As(err, &qe):
			l.metrics.VoteRejected("quota")
		}
		return models.Poll{}, false, err
	}

	l.metrics.VoteCast()
	slog.Info("vote cast", "poll_id", pollID, "option_id", optionID, "total_votes", poll.TotalVotes)
	return poll, true, nil
}
