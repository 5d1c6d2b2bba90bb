package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Poll status constants
const (
	StatusOpen = "open"
)

// Plan tiers
type PlanTier string

const (
	TierFree    PlanTier = "free"
	TierPremium PlanTier = "premium"
)

// Payment status
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Quota kinds
type QuotaKind string

const (
	QuotaPolls   QuotaKind = "polls"
	QuotaOptions QuotaKind = "options"
	QuotaTags    QuotaKind = "tags"
	QuotaVotes   QuotaKind = "votes"
	QuotaVoters  QuotaKind = "voters"
)

// Request types

type OptionInput struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Votes int    `json:"votes,omitempty"` // ignored, counts always start at 0
}

type CreatePollRequest struct {
	Question    string        `json:"question"`
	Description string        `json:"description"`
	Options     []OptionInput `json:"options"`
	Tags        []string      `json:"tags"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

type UpgradeRequest struct {
	TransactionID string `json:"transaction_id"`
}

type CreatePaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

type ValidatePaymentRequest struct {
	Amount  int64  `json:"amount"`
	Balance *int64 `json:"balance,omitempty"`
}

// Response types

type HasVotedResponse struct {
	PollID string `json:"poll_id"`
	Voted  bool   `json:"voted"`
}

type VoteCountResponse struct {
	PollID   string `json:"poll_id"`
	OptionID string `json:"option_id"`
	Votes    int    `json:"votes"`
}

type UpgradeResponse struct {
	AgentPlan
	PaymentID string `json:"payment_id"`
}

type WalletResponse struct {
	WalletBalance
	Synced               bool `json:"synced"`
	SufficientForPremium bool `json:"sufficient_for_premium"`
}

type ValidatePaymentResponse struct {
	Price             int64 `json:"price"`
	AmountValid       bool  `json:"amount_valid"`
	SufficientBalance *bool `json:"sufficient_balance,omitempty"`
}

// Domain types

type PollOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID          string       `json:"id"`
	Question    string       `json:"question"`
	Description string       `json:"description"`
	Options     []PollOption `json:"options"`
	Tags        []string     `json:"tags"`
	TotalVotes  int          `json:"total_votes"`
	Status      string       `json:"status"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CreatedBy   string       `json:"created_by"`
}

// Option returns the option with the given id.
func (p Poll) Option(optionID string) (PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return PollOption{}, false
}

// HasTag reports whether the poll carries tag.
func (p Poll) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type VoteRecord struct {
	ID       string    `json:"id"`
	PollID   string    `json:"poll_id"`
	OptionID string    `json:"option_id"`
	VoterID  string    `json:"voter_id"`
	VotedAt  time.Time `json:"voted_at"`
}

type AgentPlan struct {
	AgentID       string     `json:"agent_id"`
	Plan          PlanTier   `json:"plan"`
	UpgradedAt    *time.Time `json:"upgraded_at,omitempty"`
	VoteCount     int        `json:"vote_count"`
	LastVoteReset time.Time  `json:"last_vote_reset"`
	VoterCount    int        `json:"voter_count"`
}

type PaymentRecord struct {
	ID            string        `json:"id"`
	AgentID       string        `json:"agent_id"`
	Amount        int64         `json:"amount"`
	TransactionID string        `json:"transaction_id"`
	PlanType      PlanTier      `json:"plan_type"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

type WalletBalance struct {
	AgentID     string    `json:"agent_id"`
	Balance     int64     `json:"balance"`
	LastUpdated time.Time `json:"last_updated"`
}

// Limit is a quota threshold. Unlimited limits serialize as "unlimited"
// so they can never be confused with a zero quota.
type Limit struct {
	Value     int
	Unlimited bool
}

func Limited(n int) Limit { return Limit{Value: n} }

var Unlimited = Limit{Unlimited: true}

// Reached reports whether usage has hit the limit.
func (l Limit) Reached(usage int) bool {
	return !l.Unlimited && usage >= l.Value
}

// Exceeds reports whether n is strictly above the limit.
func (l Limit) Exceeds(n int) bool {
	return !l.Unlimited && n > l.Value
}

func (l Limit) String() string {
	if l.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(l.Value)
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unlimited {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(l.Value)), nil
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("invalid limit %q", s)
		}
		*l = Unlimited
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid limit: %w", err)
	}
	*l = Limited(n)
	return nil
}

type PlanUsage struct {
	Plan                  PlanTier `json:"plan"`
	MaxPolls              Limit    `json:"max_polls"`
	MaxOptions            Limit    `json:"max_options"`
	MaxTags               Limit    `json:"max_tags"`
	CurrentPolls          int      `json:"current_polls"`
	MaxVotesPerMonth      Limit    `json:"max_votes_per_month"`
	CurrentVotesThisMonth int      `json:"current_votes_this_month"`
	MaxVoters             Limit    `json:"max_voters"`
	CurrentVoters         int      `json:"current_voters"`
}

// Error response

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message,omitempty"`
	Kind    QuotaKind `json:"kind,omitempty"`
	Limit   *Limit    `json:"limit,omitempty"`
}
