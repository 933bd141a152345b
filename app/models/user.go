// Package models holds the wire and storage types shared by the API, the worker and the CLI.
package models

import "time"

type SubscriptionTier string

const (
	TierFree  SubscriptionTier = "free"
	TierPro   SubscriptionTier = "pro"
	TierElite SubscriptionTier = "elite"
)

func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPro || t == TierElite
}

// TierLimits holds the per-tier allowances. ReportsPerMonth < 0 means unlimited.
type TierLimits struct {
	ReportsPerMonth int
	MaxImportGames  int
}

var tierLimits = map[SubscriptionTier]TierLimits{
	TierFree:  {ReportsPerMonth: 1, MaxImportGames: 15},
	TierPro:   {ReportsPerMonth: 5, MaxImportGames: 50},
	TierElite: {ReportsPerMonth: -1, MaxImportGames: 50},
}

// Limits returns the allowances for t, falling back to the free tier.
func (t SubscriptionTier) Limits() TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierFree]
}

type User struct {
	ID                   string           `db:"id" json:"id"`
	Email                string           `db:"email" json:"email,omitempty"`
	DisplayName          string           `db:"display_name" json:"display_name,omitempty"`
	LichessUsername      string           `db:"lichess_username" json:"lichess_username,omitempty"`
	ChessComUsername     string           `db:"chess_com_username" json:"chess_com_username,omitempty"`
	Tier                 SubscriptionTier `db:"tier" json:"tier"`
	StripeCustomerID     string           `db:"stripe_customer_id" json:"-"`
	ReportsUsedThisMonth int              `db:"reports_used_this_month" json:"reports_used_this_month"`
	UsagePeriodStart     time.Time        `db:"usage_period_start" json:"usage_period_start"`
}

// Profile is the authenticated user together with their plan allowances.
type Profile struct {
	User
	ReportsLimit     int  `json:"reports_limit"`     // -1 means unlimited
	ReportsRemaining *int `json:"reports_remaining"` // nil when unlimited
	MaxImportGames   int  `json:"max_import_games"`
}

// NewProfile attaches the allowances of u's tier.
func NewProfile(u User) Profile {
	limits := u.Tier.Limits()
	p := Profile{User: u, ReportsLimit: limits.ReportsPerMonth, MaxImportGames: limits.MaxImportGames}
	if limits.ReportsPerMonth >= 0 {
		remaining := max(limits.ReportsPerMonth-u.ReportsUsedThisMonth, 0)
		p.ReportsRemaining = &remaining
	}
	return p
}
