// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package quota holds agent plans and enforces the free and premium tier limits.

# Tiers

	tier     polls  options  tags  votes/month  voters
	free     5      5        3     5            100
	premium  -      100      50    -            -

A dash is unlimited. Usage responses carry it as the string "unlimited"
rather than zero.

# Plans

A plan is created lazily. Reads return an unsaved free plan; the first
mutation saves it. The monthly vote counter resets the first time a plan is
touched in a new UTC calendar month. The voter counter never resets.

Votes are charged against the poll owner's plan, not the voter's.

# Locking

Mutations of one agent's plan are serialized through a shared
store.KeyLocker under AgentLockKey. The Tx methods (CheckCreatePoll,
TrackPollCreationTx, TrackVoteTx) expect the caller to hold that lock and
to run them inside its own store transaction, so a rejected vote or poll
consumes no quota.

# Upgrades

UpgradeToPremiumWithPayment creates and confirms a payment through the
payment ledger. The plan changes only when the payment completes; any other
outcome returns ErrPaymentVerificationFailed.
*/
package quota
