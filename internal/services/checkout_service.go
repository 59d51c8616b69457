package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrAlreadyPurchased    = errors.New("course already purchased")
	ErrSessionUserMismatch = errors.New("session does not belong to user")
	ErrSessionMetadata     = errors.New("session metadata incomplete")
)

const (
	metaUserID   = "user_id"
	metaCourseID = "course_id"
)

type VerifyResult struct {
	Verified     bool  `json:"verified"`
	CourseID     int64 `json:"course_id,omitempty"`
	AlreadyOwned bool  `json:"already_owned"`
}

type CheckoutService struct {
	courses   repositories.CourseRepository
	purchases repositories.PurchaseRepository
	gateway   PaymentGateway
	notifier  Notifier
	siteURL   string
	currency  string
	log       *zap.Logger
}

func NewCheckoutService(
	courses repositories.CourseRepository,
	purchases repositories.PurchaseRepository,
	gateway PaymentGateway,
	notifier Notifier,
	siteURL, currency string,
	log *zap.Logger,
) *CheckoutService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &CheckoutService{
		courses:   courses,
		purchases: purchases,
		gateway:   gateway,
		notifier:  notifier,
		siteURL:   strings.TrimRight(siteURL, "/"),
		currency:  strings.ToLower(currency),
		log:       log,
	}
}

// MinorUnits: цена в халерах, половинки округляются вверх.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StartCourseCheckout: курс должен существовать и ещё не быть куплен.
// Если куплен: в платёжку не ходим вообще.
func (s *CheckoutService) StartCourseCheckout(ctx context.Context, user *models.AuthUser, courseID int64) (*CheckoutSession, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	owned, err := s.purchases.HasPurchase(ctx, user.ID, courseID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	currency := course.Currency
	if currency == "" {
		currency = s.currency
	}
	id := strconv.FormatInt(course.ID, 10)
	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionInput{
		Title:         course.Title,
		Description:   course.Description,
		UnitAmount:    MinorUnits(course.Price),
		Currency:      strings.ToLower(currency),
		CustomerEmail: user.Email,
		SuccessURL:    s.siteURL + "/kurzy/" + id + "/dekujeme?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.siteURL + "/kurzy/" + id + "?zruseno=1",
		Metadata: map[string]string{
			metaUserID:   user.ID.String(),
			metaCourseID: id,
		},
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("[checkout][start] session created",
		zap.String("user_id", user.ID.String()),
		zap.Int64("course_id", course.ID),
		zap.String("session_id", sess.ID))
	return sess, nil
}

// VerifyPurchase идемпотентен, повторный вызов не создаёт второй покупки.
func (s *CheckoutService) VerifyPurchase(ctx context.Context, userID uuid.UUID, sessionID string) (*VerifyResult, error) {
	sess, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid() {
		s.log.Info("[checkout][verify] session not paid",
			zap.String("session_id", sessionID),
			zap.String("payment_status", sess.PaymentStatus))
		return &VerifyResult{Verified: false}, nil
	}
	if sess.Metadata[metaUserID] != userID.String() {
		s.log.Warn("[checkout][verify] user mismatch",
			zap.String("session_id", sessionID),
			zap.String("caller", userID.String()))
		return nil, ErrSessionUserMismatch
	}

	courseID, created, err := s.GrantFromSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Verified: true, CourseID: courseID, AlreadyOwned: !created}, nil
}

// GrantFromSession: общая часть verify и вебхука checkout.session.completed.
func (s *CheckoutService) GrantFromSession(ctx context.Context, sess *CheckoutSession) (courseID int64, created bool, err error) {
	userID, err := uuid.Parse(sess.Metadata[metaUserID])
	if err != nil {
		return 0, false, fmt.Errorf("%w: user_id", ErrSessionMetadata)
	}
	courseID, err = strconv.ParseInt(sess.Metadata[metaCourseID], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: course_id", ErrSessionMetadata)
	}

	currency := sess.Currency
	if currency == "" {
		currency = s.currency
	}
	p := &models.CoursePurchase{
		UserID:                userID,
		CourseID:              courseID,
		StripePaymentIntentID: sess.PaymentIntentID,
		StripeSessionID:       sess.ID,
		AmountPaid:            decimal.New(sess.AmountTotal, -2),
		Currency:              currency,
	}
	created, err = s.purchases.GrantEntitlement(ctx, p)
	if err != nil {
		return 0, false, err
	}

	if created {
		s.log.Info("[checkout][grant] purchase recorded",
			zap.String("user_id", userID.String()),
			zap.Int64("course_id", courseID),
			zap.String("amount", p.AmountPaid.StringFixed(2)))
		s.notifier.Notify(ctx, fmt.Sprintf("🎓 Nový nákup kurzu #%d: %s %s", courseID, p.AmountPaid.StringFixed(2), strings.ToUpper(currency)))
	} else {
		s.log.Info("[checkout][grant] already owned",
			zap.String("user_id", userID.String()),
			zap.Int64("course_id", courseID))
	}
	return courseID, created, nil
}
