package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("checkout session not found")

type CheckoutSessionInput struct {
	Title         string
	Description   string
	UnitAmount    int64 // в минимальных единицах (халеры)
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

func (s *CheckoutSession) Paid() bool {
	return s != nil && s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

type PaymentIntentInput struct {
	Amount   int64
	Currency string
	Email    string
	Metadata map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	CustomerID   string
	Amount       int64
	Currency     string
}

// PaymentGateway: всё, что нам нужно от платёжки.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error)
}

type StripeGateway struct {
	log *zap.Logger
}

func NewStripeGateway(secretKey string, log *zap.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{log: log}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(in.Title),
	}
	if in.Description != "" {
		product.Description = stripe.String(in.Description)
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(in.Currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(in.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		Metadata:   in.Metadata,
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		g.log.Error("[stripe][checkout] create session failed", zap.Error(err))
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	g.log.Info("[stripe][checkout] session created",
		zap.String("session_id", s.ID),
		zap.Int64("amount", in.UnitAmount))
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(id, params)
	if err != nil {
		if isStripeNotFound(err) {
			return nil, ErrSessionNotFound
		}
		g.log.Error("[stripe][checkout] get session failed", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	cp := &stripe.CustomerParams{Email: stripe.String(in.Email)}
	cp.Context = ctx
	cust, err := customer.New(cp)
	if err != nil {
		g.log.Error("[stripe][intent] create customer failed", zap.Error(err))
		return nil, fmt.Errorf("stripe: create customer: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(in.Currency),
		Customer: stripe.String(cust.ID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: in.Metadata,
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		g.log.Error("[stripe][intent] create payment intent failed", zap.String("customer_id", cust.ID), zap.Error(err))
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	g.log.Info("[stripe][intent] created",
		zap.String("payment_intent_id", pi.ID),
		zap.String("customer_id", cust.ID),
		zap.Int64("amount", pi.Amount))

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		CustomerID:   cust.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func isStripeNotFound(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing
}
