// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the quorum API server.

quorum is a polling service for agents. Each agent may vote once per poll
and never on its own poll. Poll creation and incoming votes are charged
against the poll owner's plan: a free tier with small limits and a premium
tier unlocked by a confirmed payment.

# Starting the Server

Configuration comes from a .env file, environment variables or CLI flags:

	AGENT_TOKEN_SECRET=... DATABASE_URL=quorum.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -token-secret dev

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
    (not needed with DATABASE_TYPE=memory)
  - AGENT_TOKEN_SECRET (-token-secret): HMAC secret for agent tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - PREMIUM_PRICE (-premium-price): Upgrade price in coins (default: 1000)
  - ENFORCE_PAYMENT_BALANCE: Check the coin balance on confirm
  - DEFAULT_COIN_BALANCE: Balance of agents unknown to the coin ledger

# Architecture

  - handlers: HTTP request handlers (polls, voting, plans, payments)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - voting: Poll and vote ledger
  - quota: Plan tiers, limits and monthly resets
  - payment: Payment records and wallet cache
  - store: Transactional key-value storage (SQL or in-memory)
  - metrics: Prometheus counters
  - models: Request/response and domain types
  - auth: Agent tokens and id generation
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
