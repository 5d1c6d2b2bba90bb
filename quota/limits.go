// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quota

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/quorum/models"
)

var (
	ErrAlreadyPremium            = fmt.Errorf("%w: agent is already on the premium plan", models.ErrRuleViolation)
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// Limits are the quota thresholds of one tier.
type Limits struct {
	MaxPolls         models.Limit
	MaxOptions       models.Limit
	MaxTags          models.Limit
	MaxVotesPerMonth models.Limit
	MaxVoters        models.Limit
}

var tierLimits = map[models.PlanTier]Limits{
	models.TierFree: {
		MaxPolls:         models.Limited(5),
		MaxOptions:       models.Limited(5),
		MaxTags:          models.Limited(3),
		MaxVotesPerMonth: models.Limited(5),
		MaxVoters:        models.Limited(100),
	},
	models.TierPremium: {
		MaxPolls:         models.Unlimited,
		MaxOptions:       models.Limited(100),
		MaxTags:          models.Limited(50),
		MaxVotesPerMonth: models.Unlimited,
		MaxVoters:        models.Unlimited,
	},
}

// LimitsFor returns the limits of tier. Unknown tiers get free limits.
func LimitsFor(tier models.PlanTier) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[models.TierFree]
}

// QuotaError reports a tier limit breach.
type QuotaError struct {
	Kind  models.QuotaKind
	Limit models.Limit
	Tier  models.PlanTier
}

var kindUnits = map[models.QuotaKind]string{
	models.QuotaPolls:   "polls per agent",
	models.QuotaOptions: "options per poll",
	models.QuotaTags:    "tags per poll",
	models.QuotaVotes:   "votes per month",
	models.QuotaVoters:  "voters",
}

func (e *QuotaError) Error() string {
	msg := fmt.Sprintf("%s plan allows at most %s %s", e.Tier, e.Limit, kindUnits[e.Kind])
	if e.Tier == models.TierFree {
		msg += "; upgrade to premium for more"
	}
	return msg
}

func exceeded(kind models.QuotaKind, limit models.Limit, tier models.PlanTier) error {
	return &QuotaError{Kind: kind, Limit: limit, Tier: tier}
}
