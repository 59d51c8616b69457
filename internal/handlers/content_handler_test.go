package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type stubContent struct {
	courses []*models.Course
	blogs   []*models.Blog
	page    int
	limit   int
	listErr error
}

func (s *stubContent) ListCourses(context.Context) ([]*models.Course, error) {
	return s.courses, s.listErr
}

func (s *stubContent) GetCourse(_ context.Context, id int64) (*models.Course, error) {
	for _, c := range s.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, services.ErrCourseNotFound
}

func (s *stubContent) ListBlogs(_ context.Context, page, limit int) ([]*models.Blog, error) {
	s.page, s.limit = page, limit
	return s.blogs, nil
}

func (s *stubContent) GetBlog(_ context.Context, slug string) (*models.Blog, error) {
	for _, b := range s.blogs {
		if b.Slug == slug {
			return b, nil
		}
	}
	return nil, services.ErrBlogNotFound
}

func (s *stubContent) ListTeam(context.Context) ([]*models.TeamMember, error) {
	return []*models.TeamMember{{Name: "Petr Svoboda"}}, nil
}

func contentRouter(svc ContentService) http.Handler {
	h := NewContentHandler(svc)
	r := newRouter(nil)
	r.GET("/api/courses", h.ListCourses)
	r.GET("/api/courses/:id", h.GetCourse)
	r.GET("/api/blogs", h.ListBlogs)
	r.GET("/api/blogs/:slug", h.GetBlog)
	r.GET("/api/team-members", h.ListTeam)
	return r
}

func TestContentHandler(t *testing.T) {
	svc := &stubContent{
		courses: []*models.Course{{ID: 4, Title: "Zdravá záda", Price: decimal.NewFromInt(990)}},
		blogs:   []*models.Blog{{Slug: "protahovani", Title: "Protahování"}},
	}
	r := contentRouter(svc)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/courses", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/courses/4", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/courses/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/courses/abc", nil).Code)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/blogs?page=2&limit=5", nil).Code)
	assert.Equal(t, 2, svc.page)
	assert.Equal(t, 5, svc.limit)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/blogs/protahovani", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/blogs/nic", nil).Code)

	w := doJSON(r, http.MethodGet, "/api/team-members", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Petr Svoboda")
}

func TestContentHandler_ListFailure(t *testing.T) {
	r := contentRouter(&stubContent{listErr: errors.New("db down")})

	w := doJSON(r, http.MethodGet, "/api/courses", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to load courses", decodeBody(t, w)["error"])
}

type stubDashboard struct {
	sub        *models.Subscription
	receiptErr error
}

func (s *stubDashboard) Courses(context.Context, uuid.UUID) ([]*models.CourseEnrollment, error) {
	return []*models.CourseEnrollment{{CourseID: 4}}, nil
}

func (s *stubDashboard) Subscription(context.Context, uuid.UUID) (*models.Subscription, error) {
	return s.sub, nil
}

func (s *stubDashboard) Tips(context.Context, uuid.UUID) (*services.TipsResult, error) {
	return &services.TipsResult{Tips: []services.Tip{{ID: "start", Type: "info"}}}, nil
}

func (s *stubDashboard) WriteReceipt(_ context.Context, _ *models.AuthUser, _ int64, w io.Writer) error {
	if s.receiptErr != nil {
		return s.receiptErr
	}
	_, err := w.Write([]byte("%PDF-1.3 test"))
	return err
}

func dashboardRouter(svc DashboardService, user *models.AuthUser) http.Handler {
	h := NewDashboardHandler(svc)
	r := newRouter(user)
	r.GET("/api/dashboard/courses", h.Courses)
	r.GET("/api/dashboard/subscription", h.Subscription)
	r.GET("/api/dashboard/tips", h.Tips)
	r.GET("/api/purchases/:course_id/receipt", h.Receipt)
	return r
}

func TestDashboardHandler(t *testing.T) {
	r := dashboardRouter(&stubDashboard{}, student)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/dashboard/courses", nil).Code)

	w := doJSON(r, http.MethodGet, "/api/dashboard/subscription", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody(t, w)["subscription"])

	w = doJSON(r, http.MethodGet, "/api/dashboard/tips", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"start"`)

	w = doJSON(r, http.MethodGet, "/api/purchases/4/receipt", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "potvrzeni-4.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestDashboardHandler_ReceiptNotFound(t *testing.T) {
	r := dashboardRouter(&stubDashboard{receiptErr: services.ErrPurchaseNotFound}, student)

	w := doJSON(r, http.MethodGet, "/api/purchases/9/receipt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Purchase not found", decodeBody(t, w)["error"])
}

func TestDashboardHandler_RequiresUser(t *testing.T) {
	r := dashboardRouter(&stubDashboard{}, nil)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/dashboard/tips", nil).Code)
}

type stubReports struct{}

func (stubReports) Summary(context.Context) (*services.SalesSummary, error) {
	return &services.SalesSummary{TotalPurchases: 3, TotalRevenue: decimal.NewFromInt(2970), ActiveSubscriptions: 1}, nil
}

func TestReportHandler_GetSummary(t *testing.T) {
	r := newRouter(nil)
	r.GET("/api/admin/reports/summary", NewReportHandler(stubReports{}).GetSummary)

	w := doJSON(r, http.MethodGet, "/api/admin/reports/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 3, body["total_purchases"])
	assert.Equal(t, "2970", body["total_revenue"])
}
