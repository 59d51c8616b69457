package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/pdf"
	"fyzioakademie/internal/repositories"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

type TipsResult struct {
	Stats LearningStats `json:"stats"`
	Tips  []Tip         `json:"tips"`
}

type DashboardService struct {
	enrollments repositories.EnrollmentRepository
	subs        repositories.SubscriptionRepository
	purchases   repositories.PurchaseRepository
	courses     repositories.CourseRepository
	receipts    pdf.Generator
	now         func() time.Time
	log         *zap.Logger
}

func NewDashboardService(
	enrollments repositories.EnrollmentRepository,
	subs repositories.SubscriptionRepository,
	purchases repositories.PurchaseRepository,
	courses repositories.CourseRepository,
	receipts pdf.Generator,
	log *zap.Logger,
) *DashboardService {
	return &DashboardService{
		enrollments: enrollments,
		subs:        subs,
		purchases:   purchases,
		courses:     courses,
		receipts:    receipts,
		now:         time.Now,
		log:         log,
	}
}

func (s *DashboardService) Courses(ctx context.Context, userID uuid.UUID) ([]*models.CourseEnrollment, error) {
	out, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.CourseEnrollment{}
	}
	return out, nil
}

// Subscription: nil, nil если активной подписки нет.
func (s *DashboardService) Subscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return s.subs.GetActiveByUser(ctx, userID)
}

func (s *DashboardService) Tips(ctx context.Context, userID uuid.UUID) (*TipsResult, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	watch, err := s.enrollments.WatchTimeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := ComputeLearningStats(enrollments, watch, s.now())
	return &TipsResult{Stats: st, Tips: SelectTips(st)}, nil
}

// WriteReceipt: PDF только для своей покупки.
func (s *DashboardService) WriteReceipt(ctx context.Context, user *models.AuthUser, courseID int64, w io.Writer) error {
	p, err := s.purchases.GetPurchase(ctx, user.ID, courseID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPurchaseNotFound
	}
	title := fmt.Sprintf("Kurz #%d", courseID)
	if c, err := s.courses.GetByID(ctx, courseID); err == nil && c != nil {
		title = c.Title
	}

	return s.receipts.Receipt(w, pdf.ReceiptData{
		Number:        fmt.Sprintf("FA-%06d", p.ID),
		CustomerName:  user.FullName,
		CustomerEmail: user.Email,
		CourseTitle:   title,
		Amount:        p.AmountPaid.StringFixed(2),
		Currency:      strings.ToUpper(p.Currency),
		PaidAt:        p.CreatedAt,
		PaymentRef:    p.StripePaymentIntentID,
	})
}
