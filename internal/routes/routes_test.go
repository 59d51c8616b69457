package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fyzioakademie/internal/authz"
	"fyzioakademie/internal/handlers"
	"fyzioakademie/internal/middleware"
	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type tokenTable map[string]*models.AuthUser

func (t tokenTable) Verify(_ context.Context, token string) (*models.AuthUser, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, middleware.ErrInvalidToken
}

type emptyReports struct{}

func (emptyReports) Summary(context.Context) (*services.SalesSummary, error) {
	return &services.SalesSummary{}, nil
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := tokenTable{
		"student-token": {ID: uuid.New(), Email: "jana@example.cz"},
		"admin-token":   {ID: uuid.New(), Email: "admin@example.cz", Role: authz.RoleAdmin},
	}
	h := Handlers{
		Auth:      handlers.NewAuthHandler(nil, nil),
		Checkout:  handlers.NewCheckoutHandler(nil),
		Payments:  handlers.NewPaymentHandler(nil),
		Webhooks:  handlers.NewWebhookHandler(nil),
		Content:   handlers.NewContentHandler(nil),
		Dashboard: handlers.NewDashboardHandler(nil),
		Reports:   handlers.NewReportHandler(emptyReports{}),
	}
	return SetupRoutes(gin.New(), h, tokens)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestEngine()
	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/checkout/course"},
		{http.MethodPost, "/api/checkout/verify"},
		{http.MethodPost, "/api/payments/intent"},
		{http.MethodGet, "/api/dashboard/tips"},
		{http.MethodGet, "/api/dashboard/courses"},
		{http.MethodGet, "/api/purchases/1/receipt"},
		{http.MethodGet, "/api/admin/reports/summary"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.path)
	}
}

func TestAdminReportRequiresAdminRole(t *testing.T) {
	r := newTestEngine()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/summary", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/reports/summary", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
