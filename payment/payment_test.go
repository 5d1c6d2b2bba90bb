// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/store"
)

func newTestLedger(t *testing.T, cfg Config) (*Ledger, *StaticCoinLedger) {
	t.Helper()
	coins := NewStaticCoinLedger(0)
	return NewLedger(store.NewMemory(), coins, cfg, nil), coins
}

func TestCreatePaymentRecord(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})
	ctx := context.Background()

	rec, err := ledger.CreatePaymentRecord(ctx, "alice", "tx-1")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "alice", rec.AgentID)
	assert.Equal(t, DefaultPremiumPrice, rec.Amount)
	assert.Equal(t, "tx-1", rec.TransactionID)
	assert.Equal(t, models.TierPremium, rec.PlanType)
	assert.Equal(t, models.PaymentPending, rec.Status)
	assert.Nil(t, rec.CompletedAt)

	stored, ok, err := ledger.GetPayment(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.ID, stored.ID)
}

func TestCreatePaymentRecord_Validation(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})

	tests := []struct {
		name    string
		agentID string
		txID    string
		field   string
	}{
		{"missing agent", "", "tx", "agent_id"},
		{"blank transaction", "alice", "  ", "transaction_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.CreatePaymentRecord(context.Background(), tt.agentID, tt.txID)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestConfirmPayment_Twice(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})
	ctx := context.Background()

	rec, err := ledger.CreatePaymentRecord(ctx, "alice", "tx-1")
	require.NoError(t, err)

	confirmed, err := ledger.ConfirmPayment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, confirmed.Status)
	require.NotNil(t, confirmed.CompletedAt)

	_, err = ledger.ConfirmPayment(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.ErrorIs(t, err, models.ErrRuleViolation)

	stored, _, err := ledger.GetPayment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.True(t, stored.CompletedAt.Equal(*confirmed.CompletedAt))
}

func TestConfirmPayment_NotFound(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})

	_, err := ledger.ConfirmPayment(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConfirmPayment_Concurrent(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})
	ctx := context.Background()

	rec, err := ledger.CreatePaymentRecord(ctx, "alice", "tx-1")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		completed atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ConfirmPayment(ctx, rec.ID)
			switch {
			case err == nil:
				completed.Add(1)
			case errors.Is(err, ErrAlreadyProcessed):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), completed.Load())
	assert.Equal(t, int32(9), rejected.Load())
}

func TestConfirmPayment_EnforceBalance(t *testing.T) {
	ledger, coins := newTestLedger(t, Config{PremiumPrice: 500, EnforceBalance: true})
	ctx := context.Background()

	coins.SetBalance("poor", 499)
	coins.SetBalance("rich", 500)

	poor, err := ledger.CreatePaymentRecord(ctx, "poor", "tx-p")
	require.NoError(t, err)
	failed, err := ledger.ConfirmPayment(ctx, poor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.Status)
	assert.Nil(t, failed.CompletedAt)

	// failed is terminal
	_, err = ledger.ConfirmPayment(ctx, poor.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	rich, err := ledger.CreatePaymentRecord(ctx, "rich", "tx-r")
	require.NoError(t, err)
	done, err := ledger.ConfirmPayment(ctx, rich.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)

	// the balance seen at confirmation is cached
	wallet, ok, err := ledger.GetWalletBalance(ctx, "poor")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(499), wallet.Balance)
}

type failingCoins struct{}

func (failingCoins) BalanceOf(context.Context, string) (int64, error) {
	return 0, errors.New("ledger unreachable")
}

func TestConfirmPayment_CoinLedgerError(t *testing.T) {
	ledger := NewLedger(store.NewMemory(), failingCoins{}, Config{EnforceBalance: true}, nil)
	ctx := context.Background()

	rec, err := ledger.CreatePaymentRecord(ctx, "alice", "tx-1")
	require.NoError(t, err)

	_, err = ledger.ConfirmPayment(ctx, rec.ID)
	require.Error(t, err)

	stored, _, err := ledger.GetPayment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.Status)
}

func TestGetPaymentHistory_NewestFirst(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{})
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		ledger.SetClock(func() time.Time { return at })
		rec, err := ledger.CreatePaymentRecord(ctx, "alice", "tx")
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := ledger.CreatePaymentRecord(ctx, "bob", "tx")
	require.NoError(t, err)

	history, err := ledger.GetPaymentHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)
	assert.Equal(t, ids[0], history[2].ID)

	empty, err := ledger.GetPaymentHistory(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPredicates(t *testing.T) {
	ledger, _ := newTestLedger(t, Config{PremiumPrice: 100})

	assert.False(t, ledger.ValidatePaymentAmount(99))
	assert.True(t, ledger.ValidatePaymentAmount(100))
	assert.True(t, ledger.ValidatePaymentAmount(150))

	assert.False(t, ledger.HasSufficientBalance(0))
	assert.True(t, ledger.HasSufficientBalance(100))
}

func TestSyncWalletBalance_Overwrites(t *testing.T) {
	ledger, coins := newTestLedger(t, Config{})
	ctx := context.Background()

	_, ok, err := ledger.GetWalletBalance(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	coins.SetBalance("alice", 2500)
	wallet, err := ledger.SyncWalletBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), wallet.Balance)

	coins.SetBalance("alice", 40)
	_, err = ledger.SyncWalletBalance(ctx, "alice")
	require.NoError(t, err)

	cached, ok, err := ledger.GetWalletBalance(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(40), cached.Balance)
}
