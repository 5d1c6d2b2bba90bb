// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package payment records premium payments and caches coin balances.
//
// A payment is created pending and leaves that state only through
// ConfirmPayment, which moves it to completed (or failed when balance
// enforcement is on and the coin ledger reports too little). Confirming
// never changes a plan; quota.Engine does that after a completed confirm.
package payment
