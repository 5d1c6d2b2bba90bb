// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p              Server port
	-t              Database type (sqlite, postgres, memory)
	-d              Database URL
	-token-secret   Agent token secret
	-premium-price  Premium price in coins

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_TYPE      → -t
	DATABASE_URL       → -d
	AGENT_TOKEN_SECRET → -token-secret
	PREMIUM_PRICE      → -premium-price

ENFORCE_PAYMENT_BALANCE and DEFAULT_COIN_BALANCE are environment only.
CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error when AGENT_TOKEN_SECRET is missing, when
DATABASE_URL is missing for a sqlite or postgres store, or when a numeric
or boolean variable does not parse.
*/
package cliparse
