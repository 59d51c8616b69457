package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fyzioakademie/internal/repositories"
)

type SalesSummary struct {
	TotalPurchases      int                          `json:"total_purchases"`
	TotalRevenue        decimal.Decimal              `json:"total_revenue"`
	ActiveSubscriptions int                          `json:"active_subscriptions"`
	Courses             []repositories.CourseRevenue `json:"courses"`
}

type ReportService struct {
	purchases repositories.PurchaseRepository
	subs      repositories.SubscriptionRepository
}

func NewReportService(purchases repositories.PurchaseRepository, subs repositories.SubscriptionRepository) *ReportService {
	return &ReportService{purchases: purchases, subs: subs}
}

func (s *ReportService) Summary(ctx context.Context) (*SalesSummary, error) {
	rows, err := s.purchases.RevenueByCourse(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.subs.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	out := &SalesSummary{TotalRevenue: decimal.Zero, ActiveSubscriptions: active, Courses: rows}
	if out.Courses == nil {
		out.Courses = []repositories.CourseRevenue{}
	}
	for _, r := range rows {
		out.TotalPurchases += r.Purchases
		out.TotalRevenue = out.TotalRevenue.Add(r.Revenue)
	}
	return out, nil
}
