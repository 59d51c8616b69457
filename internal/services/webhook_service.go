package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

var ErrInvalidSignature = errors.New("webhook signature verification failed")

type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

type WebhookService struct {
	secret   string
	checkout *CheckoutService
	payments *PaymentService
	log      *zap.Logger
}

func NewWebhookService(secret string, checkout *CheckoutService, payments *PaymentService, log *zap.Logger) *WebhookService {
	return &WebhookService{secret: secret, checkout: checkout, payments: payments, log: log}
}

func (s *WebhookService) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log.Warn("[webhook][stripe] bad signature", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	s.log.Info("[webhook][stripe] event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	res := &WebhookResult{EventID: event.ID, EventType: string(event.Type), Processed: true}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event, res)
	case stripe.EventTypePaymentIntentSucceeded:
		err = s.handlePaymentIntent(ctx, event, res, true)
	case stripe.EventTypePaymentIntentPaymentFailed:
		err = s.handlePaymentIntent(ctx, event, res, false)
	default:
		res.Processed = false
		res.Message = "Event type not handled"
	}
	if err != nil {
		s.log.Error("[webhook][stripe] processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event, res *WebhookResult) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	sess := toCheckoutSession(&cs)
	if !sess.Paid() {
		res.Processed = false
		res.Message = "Session not paid"
		return nil
	}
	_, created, err := s.checkout.GrantFromSession(ctx, sess)
	if err != nil {
		return err
	}
	if !created {
		res.Message = "Already owned"
	}
	return nil
}

func (s *WebhookService) handlePaymentIntent(ctx context.Context, event stripe.Event, res *WebhookResult, succeeded bool) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}
	if !succeeded {
		return s.payments.FailIntent(ctx, pi.ID)
	}
	activated, err := s.payments.ActivateFromIntent(ctx, pi.ID)
	if err != nil {
		return err
	}
	if !activated {
		res.Message = "Subscription not pending"
	}
	return nil
}
