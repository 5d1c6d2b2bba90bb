// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payment

import (
	"context"
	"sync"
)

// CoinLedger is the external network holding agent coin balances.
type CoinLedger interface {
	BalanceOf(ctx context.Context, agentID string) (int64, error)
}

// StaticCoinLedger is a simulated coin ledger. Agents without an explicit
// balance hold the default.
type StaticCoinLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
	fallback int64
}

func NewStaticCoinLedger(defaultBalance int64) *StaticCoinLedger {
	return &StaticCoinLedger{
		balances: make(map[string]int64),
		fallback: defaultBalance,
	}
}

func (c *StaticCoinLedger) SetBalance(agentID string, balance int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[agentID] = balance
}

func (c *StaticCoinLedger) BalanceOf(ctx context.Context, agentID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.balances[agentID]; ok {
		return b, nil
	}
	return c.fallback, nil
}
