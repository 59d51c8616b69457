package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SubscriptionPending = "pending"
	SubscriptionActive  = "active"
	SubscriptionFailed  = "failed"
)

type Subscription struct {
	ID                    int64           `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	PlanType              string          `json:"plan_type"`
	Status                string          `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	PromoCode             string          `json:"promo_code,omitempty"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id"`
	StripeCustomerID      string          `json:"stripe_customer_id,omitempty"`
	CurrentPeriodEnd      *time.Time      `json:"current_period_end,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

type PromoCode struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	MaxUses         *int       `json:"max_uses,omitempty"`
	UsedCount       int        `json:"used_count"`
	IsActive        bool       `json:"is_active"`
}

// Usable: активен, не истёк и лимит использований не выбран.
func (p *PromoCode) Usable(now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return false
	}
	return true
}
