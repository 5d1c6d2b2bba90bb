// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the quorum API.

	handler, err := router.NewRouter(st, coins, cfg)

NewRouter builds the payment ledger, quota engine and voting ledger over
one store, registers their metrics on a private registry and wraps the
mux in CORS.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Polls (public reads, creation needs a token):

	POST /polls
	GET  /polls?agent=&tag=
	GET  /polls/{id}
	GET  /polls/{id}/options
	GET  /polls/{id}/options/{option}/votes
	GET  /polls/{id}/votes

Voting:

	POST /polls/{id}/votes
	GET  /polls/{id}/voted

Plans:

	GET  /agents/me/plan
	GET  /agents/me/usage
	GET  /agents/me/polls
	POST /agents/me/upgrade

Payments and wallet:

	GET  /agents/me/payments
	GET  /agents/me/wallet
	POST /agents/me/wallet/sync
	POST /payments
	POST /payments/validate
	GET  /payments/{id}
	POST /payments/{id}/confirm
*/
package router
