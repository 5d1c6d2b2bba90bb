// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/store"
)

// GetPoll returns a poll; ok is false when none exists.
func (l *Ledger) GetPoll(ctx context.Context, pollID string) (models.Poll, bool, error) {
	var poll models.Poll
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		poll, err = store.GetJSON[models.Poll](tx, store.BucketPolls, pollID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.Poll{}, false, nil
	}
	if err != nil {
		return models.Poll{}, false, fmt.Errorf("failed to load poll: %w", err)
	}
	return poll, true, nil
}

// GetAllPolls returns every poll in creation order.
func (l *Ledger) GetAllPolls(ctx context.Context) ([]models.Poll, error) {
	return l.filterPolls(ctx, func(models.Poll) bool { return true })
}

// GetPollsByTag returns the polls carrying tag.
func (l *Ledger) GetPollsByTag(ctx context.Context, tag string) ([]models.Poll, error) {
	return l.filterPolls(ctx, func(p models.Poll) bool { return p.HasTag(tag) })
}

// GetPollsByAgent returns the polls agentID created.
func (l *Ledger) GetPollsByAgent(ctx context.Context, agentID string) ([]models.Poll, error) {
	return l.filterPolls(ctx, func(p models.Poll) bool { return p.CreatedBy == agentID })
}

func (l *Ledger) filterPolls(ctx context.Context, keep func(models.Poll) bool) ([]models.Poll, error) {
	var all []models.Poll
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		all, err = store.ScanJSON[models.Poll](tx, store.BucketPolls, "")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	polls := all[:0]
	for _, p := range all {
		if keep(p) {
			polls = append(polls, p)
		}
	}
	return polls, nil
}

// GetVotesForPoll returns the poll's vote records in the order they were cast.
func (l *Ledger) GetVotesForPoll(ctx context.Context, pollID string) ([]models.VoteRecord, error) {
	var votes []models.VoteRecord
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		votes, err = store.ScanJSON[models.VoteRecord](tx, store.BucketVotes, pollID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

// HasVoted reports whether voterID has voted in pollID.
func (l *Ledger) HasVoted(ctx context.Context, voterID, pollID string) (bool, error) {
	var voted bool
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		voted, err = store.Exists(tx, store.BucketVoterIndex, voterKey(voterID, pollID))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check voter index: %w", err)
	}
	return voted, nil
}

// GetPollOptions returns the poll's options; ok is false when the poll
// does not exist.
func (l *Ledger) GetPollOptions(ctx context.Context, pollID string) ([]models.PollOption, bool, error) {
	poll, ok, err := l.GetPoll(ctx, pollID)
	if err != nil || !ok {
		return nil, false, err
	}
	return poll.Options, true, nil
}

// GetVoteCountForOption returns one option's tally; ok is false when the
// poll or option does not exist.
func (l *Ledger) GetVoteCountForOption(ctx context.Context, pollID, optionID string) (int, bool, error) {
	poll, ok, err := l.GetPoll(ctx, pollID)
	if err != nil || !ok {
		return 0, false, err
	}
	opt, ok := poll.Option(optionID)
	if !ok {
		return 0, false, nil
	}
	return opt.Votes, true, nil
}
