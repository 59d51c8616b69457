package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fyzioakademie/internal/config"
	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
)

var (
	ErrUnknownPlan      = errors.New("unknown plan type")
	ErrInvalidPromoCode = errors.New("invalid promo code")
	ErrZeroAmount       = errors.New("amount after discount must be positive")
)

type Plan struct {
	Type       string          `json:"type"`
	Label      string          `json:"label"`
	Price      decimal.Decimal `json:"price"`
	PeriodDays int             `json:"period_days"`
}

// PeriodEnd: nil для бессрочного тарифа.
func (p Plan) PeriodEnd(from time.Time) *time.Time {
	if p.PeriodDays <= 0 {
		return nil
	}
	end := from.AddDate(0, 0, p.PeriodDays)
	return &end
}

func ParsePlans(cfg map[string]config.PlanConfig) (map[string]Plan, error) {
	out := make(map[string]Plan, len(cfg))
	for name, pc := range cfg {
		price, err := decimal.NewFromString(pc.Price)
		if err != nil {
			return nil, fmt.Errorf("plan %s: price %q: %w", name, pc.Price, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("plan %s: price must be positive", name)
		}
		out[name] = Plan{Type: name, Label: pc.Label, Price: price, PeriodDays: pc.PeriodDays}
	}
	return out, nil
}

type IntentResult struct {
	ClientSecret    string  `json:"clientSecret"`
	PaymentIntentID string  `json:"paymentIntentId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

type PaymentService struct {
	plans    map[string]Plan
	subs     repositories.SubscriptionRepository
	promos   repositories.PromoCodeRepository
	gateway  PaymentGateway
	notifier Notifier
	currency string
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentService(
	plans map[string]Plan,
	subs repositories.SubscriptionRepository,
	promos repositories.PromoCodeRepository,
	gateway PaymentGateway,
	notifier Notifier,
	currency string,
	log *zap.Logger,
) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &PaymentService{
		plans:    plans,
		subs:     subs,
		promos:   promos,
		gateway:  gateway,
		notifier: notifier,
		currency: strings.ToLower(currency),
		now:      time.Now,
		log:      log,
	}
}

func (s *PaymentService) Plans() []Plan {
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out
}

// ValidatePromo: активен, не истёк, лимит не выбран.
func (s *PaymentService) ValidatePromo(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidPromoCode
	}
	promo, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !promo.Usable(s.now()) {
		return nil, ErrInvalidPromoCode
	}
	return promo, nil
}

// ApplyDiscount: процентная скидка, округление до халеров.
func ApplyDiscount(price decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return price
	}
	if percent >= 100 {
		return decimal.Zero
	}
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}

func (s *PaymentService) CreateIntent(ctx context.Context, user *models.AuthUser, planType, promoCode string) (*IntentResult, error) {
	plan, ok := s.plans[strings.ToLower(strings.TrimSpace(planType))]
	if !ok {
		return nil, ErrUnknownPlan
	}

	amount := plan.Price
	var promo *models.PromoCode
	if strings.TrimSpace(promoCode) != "" {
		var err error
		promo, err = s.ValidatePromo(ctx, promoCode)
		if err != nil {
			return nil, err
		}
		amount = ApplyDiscount(amount, promo.DiscountPercent)
	}
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}

	meta := map[string]string{
		"user_id":   user.ID.String(),
		"plan_type": plan.Type,
	}
	if promo != nil {
		meta["promo_code"] = promo.Code
	}
	pi, err := s.gateway.CreatePaymentIntent(ctx, PaymentIntentInput{
		Amount:   MinorUnits(amount),
		Currency: s.currency,
		Email:    user.Email,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:                user.ID,
		PlanType:              plan.Type,
		Status:                models.SubscriptionPending,
		Amount:                amount,
		Currency:              s.currency,
		StripePaymentIntentID: pi.ID,
		StripeCustomerID:      pi.CustomerID,
	}
	if promo != nil {
		sub.PromoCode = promo.Code
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("[payments][intent] created",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", plan.Type),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("payment_intent_id", pi.ID))

	return &IntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          amount.InexactFloat64(),
		Currency:        s.currency,
	}, nil
}

// ActivateFromIntent: pending → active; повторный вебхук ничего не меняет.
func (s *PaymentService) ActivateFromIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	sub, err := s.subs.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		s.log.Warn("[payments][activate] no subscription for intent", zap.String("payment_intent_id", paymentIntentID))
		return false, nil
	}

	var end *time.Time
	if plan, ok := s.plans[sub.PlanType]; ok {
		end = plan.PeriodEnd(s.now())
	}
	activated, err := s.subs.Activate(ctx, paymentIntentID, end)
	if err != nil {
		return false, err
	}
	if !activated {
		return false, nil
	}

	if sub.PromoCode != "" {
		if err := s.promos.IncrementUsage(ctx, sub.PromoCode); err != nil {
			s.log.Error("[payments][activate] promo usage increment failed",
				zap.String("promo_code", sub.PromoCode), zap.Error(err))
		}
	}
	s.log.Info("[payments][activate] subscription active",
		zap.String("user_id", sub.UserID.String()),
		zap.String("plan", sub.PlanType))
	s.notifier.Notify(ctx, fmt.Sprintf("💳 Nové předplatné (%s): %s %s", sub.PlanType, sub.Amount.StringFixed(2), strings.ToUpper(sub.Currency)))
	return true, nil
}

func (s *PaymentService) FailIntent(ctx context.Context, paymentIntentID string) error {
	if err := s.subs.MarkFailed(ctx, paymentIntentID); err != nil {
		return err
	}
	s.log.Info("[payments][failed] subscription marked failed", zap.String("payment_intent_id", paymentIntentID))
	return nil
}
