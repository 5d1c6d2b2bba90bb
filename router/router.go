// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/handlers"
	"github.com/danielhkuo/quorum/metrics"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/payment"
	"github.com/danielhkuo/quorum/quota"
	"github.com/danielhkuo/quorum/store"
	"github.com/danielhkuo/quorum/voting"
)

func NewRouter(st store.Store, coins payment.CoinLedger, cfg cliparse.Config) (http.Handler, error) {
	mux := http.NewServeMux()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	// Plan and vote mutations share one locker so agent locks serialize
	// across the quota engine and the voting ledger
	locks := store.NewKeyLocker()
	identity := auth.NewTokenIdentity(cfg.TokenSecret)

	payments := payment.NewLedger(st, coins, payment.Config{
		PremiumPrice:   cfg.PremiumPrice,
		EnforceBalance: cfg.EnforceBalance,
	}, m)
	engine := quota.NewEngine(st, locks, payments, m)
	ledger := voting.NewLedger(st, locks, engine, m)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(ledger, identity)
	votingHandler := handlers.NewVotingHandler(ledger, identity)
	planHandler := handlers.NewPlanHandler(engine, ledger, identity)
	paymentHandler := handlers.NewPaymentHandler(payments, identity)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("GET /polls/{id}/options", middleware.WithLogging(pollHandler.GetPollOptions))
	mux.HandleFunc("GET /polls/{id}/options/{option}/votes", middleware.WithLogging(pollHandler.GetOptionVotes))
	mux.HandleFunc("GET /polls/{id}/votes", middleware.WithLogging(pollHandler.GetPollVotes))

	// Voting (identity required)
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /polls/{id}/voted", middleware.WithLogging(votingHandler.HasVoted))

	// Plans (identity required)
	mux.HandleFunc("GET /agents/me/plan", middleware.WithLogging(planHandler.GetPlan))
	mux.HandleFunc("GET /agents/me/usage", middleware.WithLogging(planHandler.GetUsage))
	mux.HandleFunc("GET /agents/me/polls", middleware.WithLogging(planHandler.GetMyPolls))
	mux.HandleFunc("POST /agents/me/upgrade", middleware.WithLogging(planHandler.Upgrade))

	// Payments and wallet
	mux.HandleFunc("GET /agents/me/payments", middleware.WithLogging(paymentHandler.GetHistory))
	mux.HandleFunc("GET /agents/me/wallet", middleware.WithLogging(paymentHandler.GetWallet))
	mux.HandleFunc("POST /agents/me/wallet/sync", middleware.WithLogging(paymentHandler.SyncWallet))
	mux.HandleFunc("POST /payments", middleware.WithLogging(paymentHandler.CreatePayment))
	mux.HandleFunc("POST /payments/validate", middleware.WithLogging(paymentHandler.ValidatePayment))
	mux.HandleFunc("GET /payments/{id}", middleware.WithLogging(paymentHandler.GetPayment))
	mux.HandleFunc("POST /payments/{id}/confirm", middleware.WithLogging(paymentHandler.ConfirmPayment))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quorum API v1"))
	})

	return middleware.CORS(mux), nil
}
