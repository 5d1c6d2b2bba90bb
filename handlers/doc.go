// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the quorum API.

# Handler Types

  - PollHandler: Poll creation and read-only queries
  - VotingHandler: Casting votes and vote checks
  - PlanHandler: Plan info, usage and premium upgrades
  - PaymentHandler: Payment records and wallet balance

Handlers are created with the service they front and an identity
provider:

	pollHandler := handlers.NewPollHandler(ledger, identity)

# Identity

Mutations and everything under /agents/me need an agent token:

	Authorization: Bearer <token>

A missing or invalid token is answered with 401.

# Error Mapping

Service errors map onto status codes in one place (writeError):

  - validation errors: 400
  - quota exceeded: 402, with kind and limit in the body
  - payment verification failed: 402
  - self votes: 403
  - missing polls, options or payments: 404
  - duplicate votes, repeated confirms, already premium: 409
  - anything else: 500
*/
package handlers
