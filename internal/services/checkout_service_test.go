package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fyzioakademie/internal/models"
)

var (
	buyer    = &models.AuthUser{ID: uuid.MustParse("6a1f0c7e-2b0e-4f5c-9a53-0d8a3b1e7f10"), Email: "jana@example.cz"}
	stranger = uuid.MustParse("9b6e2f1a-7c44-4d8e-8f21-3a5c6d7e8f90")
)

func newCheckoutFixture() (*CheckoutService, *fakePurchases, *fakeGateway, *fakeNotifier) {
	courses := &fakeCourses{byID: map[int64]*models.Course{
		7: {ID: 7, Title: "Kineziotaping v praxi", Price: decimal.RequireFromString("1490.50"), Currency: "CZK", IsPublished: true},
	}}
	purchases := newFakePurchases()
	gw := &fakeGateway{sessions: map[string]*CheckoutSession{}}
	n := &fakeNotifier{}
	svc := NewCheckoutService(courses, purchases, gw, n, "https://fyzio.example/", "czk", zap.NewNop())
	return svc, purchases, gw, n
}

func paidSession(id string, user uuid.UUID, course string) *CheckoutSession {
	return &CheckoutSession{
		ID:              id,
		PaymentStatus:   "paid",
		PaymentIntentID: "pi_" + id,
		AmountTotal:     149050,
		Currency:        "czk",
		Metadata:        map[string]string{"user_id": user.String(), "course_id": course},
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(149000), MinorUnits(decimal.RequireFromString("1490")))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
}

func TestStartCourseCheckout_NotYetPurchased(t *testing.T) {
	svc, purchases, gw, _ := newCheckoutFixture()

	sess, err := svc.StartCourseCheckout(context.Background(), buyer, 7)
	require.NoError(t, err)
	assert.Equal(t, "cs_new", sess.ID)
	assert.NotEmpty(t, sess.URL)

	require.Len(t, gw.created, 1)
	in := gw.created[0]
	assert.Equal(t, int64(149050), in.UnitAmount)
	assert.Equal(t, "czk", in.Currency)
	assert.Equal(t, "https://fyzio.example/kurzy/7/dekujeme?session_id={CHECKOUT_SESSION_ID}", in.SuccessURL)
	assert.Equal(t, "https://fyzio.example/kurzy/7?zruseno=1", in.CancelURL)
	assert.Equal(t, buyer.ID.String(), in.Metadata["user_id"])
	assert.Equal(t, "7", in.Metadata["course_id"])

	// до оплаты никаких записей
	assert.Empty(t, purchases.purchases)
	assert.Empty(t, purchases.enrollments)
}

func TestStartCourseCheckout_AlreadyPurchasedSkipsGateway(t *testing.T) {
	svc, purchases, gw, _ := newCheckoutFixture()
	purchases.purchases[ownKey{buyer.ID, 7}] = &models.CoursePurchase{UserID: buyer.ID, CourseID: 7}

	_, err := svc.StartCourseCheckout(context.Background(), buyer, 7)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)
	assert.Empty(t, gw.created)
}

func TestStartCourseCheckout_Errors(t *testing.T) {
	svc, _, gw, _ := newCheckoutFixture()

	_, err := svc.StartCourseCheckout(context.Background(), buyer, 404)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	gw.createErr = errors.New("stripe: card_declined")
	_, err = svc.StartCourseCheckout(context.Background(), buyer, 7)
	assert.EqualError(t, err, "stripe: card_declined")
}

func TestVerifyPurchase_Unpaid(t *testing.T) {
	svc, purchases, gw, n := newCheckoutFixture()
	s := paidSession("cs_1", buyer.ID, "7")
	s.PaymentStatus = "unpaid"
	gw.sessions["cs_1"] = s

	res, err := svc.VerifyPurchase(context.Background(), buyer.ID, "cs_1")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Empty(t, purchases.purchases)
	assert.Empty(t, n.msgs)
}

func TestVerifyPurchase_UserMismatch(t *testing.T) {
	svc, purchases, gw, _ := newCheckoutFixture()
	gw.sessions["cs_1"] = paidSession("cs_1", stranger, "7")

	_, err := svc.VerifyPurchase(context.Background(), buyer.ID, "cs_1")
	assert.ErrorIs(t, err, ErrSessionUserMismatch)
	assert.Empty(t, purchases.purchases)
	assert.Empty(t, purchases.enrollments)
}

func TestVerifyPurchase_IdempotentGrant(t *testing.T) {
	svc, purchases, gw, n := newCheckoutFixture()
	gw.sessions["cs_1"] = paidSession("cs_1", buyer.ID, "7")

	first, err := svc.VerifyPurchase(context.Background(), buyer.ID, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, &VerifyResult{Verified: true, CourseID: 7, AlreadyOwned: false}, first)

	second, err := svc.VerifyPurchase(context.Background(), buyer.ID, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, &VerifyResult{Verified: true, CourseID: 7, AlreadyOwned: true}, second)

	require.Len(t, purchases.purchases, 1)
	assert.Equal(t, 1, purchases.enrollments[ownKey{buyer.ID, 7}])
	p := purchases.purchases[ownKey{buyer.ID, 7}]
	assert.Equal(t, "pi_cs_1", p.StripePaymentIntentID)
	assert.True(t, decimal.RequireFromString("1490.50").Equal(p.AmountPaid))
	assert.Len(t, n.msgs, 1)
}

func TestVerifyPurchase_GatewayErrors(t *testing.T) {
	svc, _, gw, _ := newCheckoutFixture()

	_, err := svc.VerifyPurchase(context.Background(), buyer.ID, "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	gw.getErr = errors.New("stripe: api down")
	_, err = svc.VerifyPurchase(context.Background(), buyer.ID, "cs_1")
	assert.EqualError(t, err, "stripe: api down")
}

func TestGrantFromSession_BadMetadata(t *testing.T) {
	svc, purchases, _, _ := newCheckoutFixture()

	_, _, err := svc.GrantFromSession(context.Background(), paidSession("cs_1", buyer.ID, "abc"))
	assert.ErrorIs(t, err, ErrSessionMetadata)

	s := paidSession("cs_2", buyer.ID, "7")
	s.Metadata["user_id"] = "nope"
	_, _, err = svc.GrantFromSession(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionMetadata)
	assert.Empty(t, purchases.purchases)
}
