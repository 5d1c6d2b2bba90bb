// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/quorum/metrics"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/store"
)

// DefaultPremiumPrice is the premium upgrade price in minor coin units.
const DefaultPremiumPrice int64 = 1000

var (
	ErrPaymentNotFound  = fmt.Errorf("payment %w", models.ErrNotFound)
	ErrAlreadyProcessed = fmt.Errorf("%w: payment already processed", models.ErrRuleViolation)
)

type Config struct {
	PremiumPrice int64

	// EnforceBalance makes ConfirmPayment check the coin ledger balance
	// against the price. An insufficient balance fails the payment.
	EnforceBalance bool
}

// Ledger owns payment records and the cached wallet balances.
type Ledger struct {
	store   store.Store
	locks   *store.KeyLocker
	coins   CoinLedger
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLedger(st store.Store, coins CoinLedger, cfg Config, m *metrics.Metrics) *Ledger {
	if cfg.PremiumPrice <= 0 {
		cfg.PremiumPrice = DefaultPremiumPrice
	}
	return &Ledger{
		store:   st,
		locks:   store.NewKeyLocker(),
		coins:   coins,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Price returns the premium price.
func (l *Ledger) Price() int64 {
	return l.cfg.PremiumPrice
}

// ValidatePaymentAmount reports whether amount covers the premium price.
func (l *Ledger) ValidatePaymentAmount(amount int64) bool {
	return amount >= l.cfg.PremiumPrice
}

// HasSufficientBalance reports whether balance covers the premium price.
func (l *Ledger) HasSufficientBalance(balance int64) bool {
	return balance >= l.cfg.PremiumPrice
}

// CreatePaymentRecord records a pending premium payment. No balance is
// touched.
func (l *Ledger) CreatePaymentRecord(ctx context.Context, agentID, transactionID string) (models.PaymentRecord, error) {
	if strings.TrimSpace(agentID) == "" {
		return models.PaymentRecord{}, models.Invalid("agent_id", "is required")
	}
	if strings.TrimSpace(transactionID) == "" {
		return models.PaymentRecord{}, models.Invalid("transaction_id", "is required")
	}

	rec := models.PaymentRecord{
		ID:            uuid.New().String(),
		AgentID:       agentID,
		Amount:        l.cfg.PremiumPrice,
		TransactionID: transactionID,
		PlanType:      models.TierPremium,
		Status:        models.PaymentPending,
		CreatedAt:     l.now().UTC(),
	}

	err := l.store.Update(ctx, func(tx store.Tx) error {
		return store.PutJSON(tx, store.BucketPayments, agentID, rec.ID, rec)
	})
	if err != nil {
		return models.PaymentRecord{}, fmt.Errorf("failed to save payment: %w", err)
	}

	l.metrics.Payment(models.PaymentPending)
	slog.Info("payment created", "payment_id", rec.ID, "agent_id", agentID, "amount", humanize.Comma(rec.Amount))
	return rec, nil
}

// ConfirmPayment moves a pending payment to completed. It is the only way
// out of pending. With EnforceBalance set, a balance below the price moves
// the payment to failed instead; the failed record is returned without an
// error so the caller can inspect its status.
func (l *Ledger) ConfirmPayment(ctx context.Context, paymentID string) (models.PaymentRecord, error) {
	if paymentID == "" {
		return models.PaymentRecord{}, models.Invalid("payment_id", "is required")
	}

	unlock := l.locks.Lock(store.Key(store.BucketPayments, paymentID))
	defer unlock()

	current, err := l.load(ctx, paymentID)
	if err != nil {
		return models.PaymentRecord{}, err
	}
	if current.Status != models.PaymentPending {
		return models.PaymentRecord{}, ErrAlreadyProcessed
	}

	var (
		balance    int64
		hasBalance bool
	)
	if l.cfg.EnforceBalance {
		balance, err = l.coins.BalanceOf(ctx, current.AgentID)
		if err != nil {
			l.metrics.WalletSyncFailed()
			return models.PaymentRecord{}, fmt.Errorf("failed to query coin balance: %w", err)
		}
		hasBalance = true
	}

	var rec models.PaymentRecord
	err = l.store.Update(ctx, func(tx store.Tx) error {
		rec, err = store.GetJSON[models.PaymentRecord](tx, store.BucketPayments, paymentID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if rec.Status != models.PaymentPending {
			return ErrAlreadyProcessed
		}

		now := l.now().UTC()
		if hasBalance {
			wallet := models.WalletBalance{AgentID: rec.AgentID, Balance: balance, LastUpdated: now}
			if err := store.PutJSON(tx, store.BucketWallets, "", rec.AgentID, wallet); err != nil {
				return err
			}
		}

		if hasBalance && !l.HasSufficientBalance(balance) {
			rec.Status = models.PaymentFailed
		} else {
			rec.Status = models.PaymentCompleted
			rec.CompletedAt = &now
		}
		return store.PutJSON(tx, store.BucketPayments, rec.AgentID, rec.ID, rec)
	})
	if err != nil {
		return models.PaymentRecord{}, err
	}

	l.metrics.Payment(rec.Status)
	if rec.Status == models.PaymentFailed {
		slog.Warn("payment failed",
			"payment_id", rec.ID,
			"agent_id", rec.AgentID,
			"balance", humanize.Comma(balance),
			"price", humanize.Comma(rec.Amount),
		)
	} else {
		slog.Info("payment confirmed", "payment_id", rec.ID, "agent_id", rec.AgentID)
	}
	return rec, nil
}

// GetPayment returns a payment record; ok is false when none exists.
func (l *Ledger) GetPayment(ctx context.Context, paymentID string) (models.PaymentRecord, bool, error) {
	rec, err := l.load(ctx, paymentID)
	if errors.Is(err, ErrPaymentNotFound) {
		return models.PaymentRecord{}, false, nil
	}
	if err != nil {
		return models.PaymentRecord{}, false, err
	}
	return rec, true, nil
}

// GetPaymentHistory returns the agent's payments, newest first.
func (l *Ledger) GetPaymentHistory(ctx context.Context, agentID string) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		records, err = store.ScanJSON[models.PaymentRecord](tx, store.BucketPayments, agentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	// newest insertion first for equal timestamps
	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b models.PaymentRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}

// SyncWalletBalance overwrites the cached balance with the coin ledger's.
func (l *Ledger) SyncWalletBalance(ctx context.Context, agentID string) (models.WalletBalance, error) {
	if agentID == "" {
		return models.WalletBalance{}, models.Invalid("agent_id", "is required")
	}

	balance, err := l.coins.BalanceOf(ctx, agentID)
	if err != nil {
		l.metrics.WalletSyncFailed()
		return models.WalletBalance{}, fmt.Errorf("failed to query coin balance: %w", err)
	}

	wallet := models.WalletBalance{
		AgentID:     agentID,
		Balance:     balance,
		LastUpdated: l.now().UTC(),
	}
	err = l.store.Update(ctx, func(tx store.Tx) error {
		return store.PutJSON(tx, store.BucketWallets, "", agentID, wallet)
	})
	if err != nil {
		return models.WalletBalance{}, fmt.Errorf("failed to save wallet: %w", err)
	}

	slog.Info("wallet synced", "agent_id", agentID, "balance", humanize.Comma(balance))
	return wallet, nil
}

// GetWalletBalance returns the cached balance; ok is false before the
// first sync.
func (l *Ledger) GetWalletBalance(ctx context.Context, agentID string) (models.WalletBalance, bool, error) {
	var wallet models.WalletBalance
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		wallet, err = store.GetJSON[models.WalletBalance](tx, store.BucketWallets, agentID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.WalletBalance{}, false, nil
	}
	if err != nil {
		return models.WalletBalance{}, false, fmt.Errorf("failed to load wallet: %w", err)
	}
	return wallet, true, nil
}

func (l *Ledger) load(ctx context.Context, paymentID string) (models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		rec, err = store.GetJSON[models.PaymentRecord](tx, store.BucketPayments, paymentID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.PaymentRecord{}, ErrPaymentNotFound
	}
	if err != nil {
		return models.PaymentRecord{}, fmt.Errorf("failed to load payment: %w", err)
	}
	return rec, nil
}
