// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package voting owns polls and votes. It guarantees one vote per voter per
// poll and rejects votes from a poll's creator.
//
// A successful vote bumps the option and total tallies, appends a vote
// record and adds the poll to the voter's index in one store transaction,
// so total_votes always equals both the option sum and the number of vote
// records. Votes on one poll are serialized by a per-poll lock.
package voting
