// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics defines the Prometheus counters recorded by the ledgers.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/quorum/models"
)

const namespace = "quorum"

type Metrics struct {
	pollsCreated     prometheus.Counter
	votesCast        prometheus.Counter
	voteRejections   *prometheus.CounterVec
	quotaRejections  *prometheus.CounterVec
	payments         *prometheus.CounterVec
	upgrades         prometheus.Counter
	walletSyncErrors prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Number of polls created",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Number of votes recorded",
		}),
		voteRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_rejections_total",
			Help:      "Number of votes rejected by rule",
		}, []string{"reason"}),
		quotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Number of operations rejected by a plan quota",
		}, []string{"kind"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Number of payment records by resulting status",
		}, []string{"status"}),
		upgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_upgrades_total",
			Help:      "Number of agents upgraded to premium",
		}),
		walletSyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_sync_errors_total",
			Help:      "Number of failed coin ledger balance queries",
		}),
	}

	collectors := []prometheus.Collector{
		m.pollsCreated,
		m.votesCast,
		m.voteRejections,
		m.quotaRejections,
		m.payments,
		m.upgrades,
		m.walletSyncErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) PollCreated() {
	if m == nil {
		return
	}
	m.pollsCreated.Inc()
}

func (m *Metrics) VoteCast() {
	if m == nil {
		return
	}
	m.votesCast.Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	if m == nil {
		return
	}
	m.voteRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) QuotaRejected(kind models.QuotaKind) {
	if m == nil {
		return
	}
	m.quotaRejections.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Payment(status models.PaymentStatus) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) Upgraded() {
	if m == nil {
		return
	}
	m.upgrades.Inc()
}

func (m *Metrics) WalletSyncFailed() {
	if m == nil {
		return
	}
	m.walletSyncErrors.Inc()
}
