// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Poll, PollOption: a question with counted options
  - VoteRecord: one accepted vote
  - AgentPlan: tier plus the monthly vote and voter counters
  - PlanUsage: limits next to current consumption
  - PaymentRecord: a premium payment (pending, completed or failed)
  - WalletBalance: cached coin balance

# Limits

Limit is either a number or unlimited and encodes as 5 or "unlimited":

	models.Limited(5).Exceeds(6)  // true
	models.Unlimited.Exceeds(1e9) // false

# Errors

ErrNotFound and ErrRuleViolation are sentinels wrapped by the services;
ValidationError names the offending field.
*/
package models
