package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
)

type fakeCourses struct {
	byID map[int64]*models.Course
}

func (f *fakeCourses) GetByID(_ context.Context, id int64) (*models.Course, error) {
	return f.byID[id], nil
}

func (f *fakeCourses) ListPublished(context.Context) ([]*models.Course, error) {
	var out []*models.Course
	for _, c := range f.byID {
		if c.IsPublished {
			out = append(out, c)
		}
	}
	return out, nil
}

type ownKey struct {
	user   uuid.UUID
	course int64
}

type fakePurchases struct {
	mu          sync.Mutex
	purchases   map[ownKey]*models.CoursePurchase
	enrollments map[ownKey]int
	revenue     []repositories.CourseRevenue
}

func newFakePurchases() *fakePurchases {
	return &fakePurchases{purchases: map[ownKey]*models.CoursePurchase{}, enrollments: map[ownKey]int{}}
}

func (f *fakePurchases) HasPurchase(_ context.Context, u uuid.UUID, c int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.purchases[ownKey{u, c}]
	return ok, nil
}

func (f *fakePurchases) GetPurchase(_ context.Context, u uuid.UUID, c int64) (*models.CoursePurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purchases[ownKey{u, c}], nil
}

func (f *fakePurchases) GrantEntitlement(_ context.Context, p *models.CoursePurchase) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ownKey{p.UserID, p.CourseID}
	if _, ok := f.purchases[k]; ok {
		return false, nil
	}
	cp := *p
	cp.ID = int64(len(f.purchases) + 1)
	cp.CreatedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.purchases[k] = &cp
	f.enrollments[k]++
	return true, nil
}

func (f *fakePurchases) RevenueByCourse(context.Context) ([]repositories.CourseRevenue, error) {
	return f.revenue, nil
}

type fakeGateway struct {
	sessions     map[string]*CheckoutSession
	getErr       error
	createErr    error
	created      []CheckoutSessionInput
	intents      []PaymentIntentInput
	getCalls     int
	intentResult *PaymentIntent
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	g.created = append(g.created, in)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new", PaymentStatus: "unpaid", Metadata: in.Metadata}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*CheckoutSession, error) {
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	s, ok := g.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	g.intents = append(g.intents, in)
	if g.intentResult != nil {
		return g.intentResult, nil
	}
	return &PaymentIntent{ID: fmt.Sprintf("pi_%d", len(g.intents)), ClientSecret: "secret", CustomerID: "cus_1", Amount: in.Amount, Currency: in.Currency}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, text)
	n.mu.Unlock()
}

type fakePending struct {
	rows map[string]*models.PendingRegistration
}

func newFakePending() *fakePending { return &fakePending{rows: map[string]*models.PendingRegistration{}} }

func (f *fakePending) Upsert(_ context.Context, p *models.PendingRegistration) error {
	cp := *p
	cp.Attempts = 0
	f.rows[p.Email] = &cp
	return nil
}

func (f *fakePending) GetByEmail(_ context.Context, email string) (*models.PendingRegistration, error) {
	return f.rows[email], nil
}

func (f *fakePending) IncrementAttempts(_ context.Context, email string) (int, error) {
	r, ok := f.rows[email]
	if !ok {
		return 0, nil
	}
	r.Attempts++
	return r.Attempts, nil
}

func (f *fakePending) Delete(_ context.Context, email string) error {
	delete(f.rows, email)
	return nil
}

func (f *fakePending) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, r := range f.rows {
		if now.After(r.ExpiresAt) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

type fakeResets struct {
	rows map[string]*models.PasswordResetRequest
}

func newFakeResets() *fakeResets { return &fakeResets{rows: map[string]*models.PasswordResetRequest{}} }

func (f *fakeResets) Upsert(_ context.Context, p *models.PasswordResetRequest) error {
	cp := *p
	cp.Attempts = 0
	f.rows[p.Email] = &cp
	return nil
}

func (f *fakeResets) GetByEmail(_ context.Context, email string) (*models.PasswordResetRequest, error) {
	return f.rows[email], nil
}

func (f *fakeResets) IncrementAttempts(_ context.Context, email string) (int, error) {
	r, ok := f.rows[email]
	if !ok {
		return 0, nil
	}
	r.Attempts++
	return r.Attempts, nil
}

func (f *fakeResets) Delete(_ context.Context, email string) error {
	delete(f.rows, email)
	return nil
}

func (f *fakeResets) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, r := range f.rows {
		if now.After(r.ExpiresAt) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

// recordingMailer: запоминает отправленные коды.
type recordingMailer struct {
	codes map[string]string
	err   error
}

func newRecordingMailer() *recordingMailer { return &recordingMailer{codes: map[string]string{}} }

func (m *recordingMailer) SendRegistrationCode(_ context.Context, email, _ string, code string) error {
	if m.err != nil {
		return m.err
	}
	m.codes[email] = code
	return nil
}

func (m *recordingMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	if m.err != nil {
		return m.err
	}
	m.codes[email] = code
	return nil
}

type mockAuthAdmin struct {
	mock.Mock
}

func (m *mockAuthAdmin) CreateUser(ctx context.Context, email, password, fullName string) (*models.AuthUser, error) {
	args := m.Called(ctx, email, password, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthUser), args.Error(1)
}

func (m *mockAuthAdmin) FindUserByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthUser), args.Error(1)
}

func (m *mockAuthAdmin) UpdatePassword(ctx context.Context, userID, password string) error {
	args := m.Called(ctx, userID, password)
	return args.Error(0)
}

type fakeSubscriptions struct {
	rows map[string]*models.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{rows: map[string]*models.Subscription{}}
}

func (f *fakeSubscriptions) Create(_ context.Context, s *models.Subscription) error {
	cp := *s
	cp.ID = int64(len(f.rows) + 1)
	f.rows[s.StripePaymentIntentID] = &cp
	s.ID = cp.ID
	return nil
}

func (f *fakeSubscriptions) GetByPaymentIntent(_ context.Context, pi string) (*models.Subscription, error) {
	return f.rows[pi], nil
}

func (f *fakeSubscriptions) Activate(_ context.Context, pi string, end *time.Time) (bool, error) {
	s, ok := f.rows[pi]
	if !ok || s.Status != models.SubscriptionPending {
		return false, nil
	}
	s.Status = models.SubscriptionActive
	s.CurrentPeriodEnd = end
	return true, nil
}

func (f *fakeSubscriptions) MarkFailed(_ context.Context, pi string) error {
	if s, ok := f.rows[pi]; ok && s.Status == models.SubscriptionPending {
		s.Status = models.SubscriptionFailed
	}
	return nil
}

func (f *fakeSubscriptions) GetActiveByUser(_ context.Context, u uuid.UUID) (*models.Subscription, error) {
	for _, s := range f.rows {
		if s.UserID == u && s.Status == models.SubscriptionActive {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptions) CountActive(context.Context) (int, error) {
	n := 0
	for _, s := range f.rows {
		if s.Status == models.SubscriptionActive {
			n++
		}
	}
	return n, nil
}

type fakePromos struct {
	rows map[string]*models.PromoCode
	used map[string]int
}

func (f *fakePromos) GetByCode(_ context.Context, code string) (*models.PromoCode, error) {
	return f.rows[code], nil
}

func (f *fakePromos) IncrementUsage(_ context.Context, code string) error {
	if f.used == nil {
		f.used = map[string]int{}
	}
	f.used[code]++
	return nil
}

type fakeEnrollments struct {
	enrollments []*models.CourseEnrollment
	watch       []*models.LessonWatchTime
}

func (f *fakeEnrollments) ListByUser(context.Context, uuid.UUID) ([]*models.CourseEnrollment, error) {
	return f.enrollments, nil
}

func (f *fakeEnrollments) WatchTimeByUser(context.Context, uuid.UUID) ([]*models.LessonWatchTime, error) {
	return f.watch, nil
}
