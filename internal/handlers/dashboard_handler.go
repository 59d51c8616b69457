package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type DashboardService interface {
	Courses(ctx context.Context, userID uuid.UUID) ([]*models.CourseEnrollment, error)
	Subscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Tips(ctx context.Context, userID uuid.UUID) (*services.TipsResult, error)
	WriteReceipt(ctx context.Context, user *models.AuthUser, courseID int64, w io.Writer) error
}

type DashboardHandler struct {
	Service DashboardService
}

func NewDashboardHandler(s DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: s}
}

// Courses godoc
//
//	@Summary	Courses the current user is enrolled in
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{array}	models.CourseEnrollment
//	@Security	BearerAuth
//	@Router		/dashboard/courses [get]
func (h *DashboardHandler) Courses(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.Service.Courses(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, "[dashboard][courses] failed", err, "Failed to load courses")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DashboardHandler) Subscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.Service.Subscription(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, "[dashboard][subscription] failed", err, "Failed to load subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *DashboardHandler) Tips(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.Service.Tips(c.Request.Context(), user.ID)
	if err != nil {
		internalError(c, "[dashboard][tips] failed", err, "Failed to load tips")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Receipt: PDF собираем в буфер, чтобы при ошибке отдать JSON, а не обрезанный файл.
func (h *DashboardHandler) Receipt(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(c, "course_id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Service.WriteReceipt(c.Request.Context(), user, courseID, &buf); err != nil {
		if errors.Is(err, services.ErrPurchaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase not found"})
			return
		}
		internalError(c, "[dashboard][receipt] failed", err, "Failed to generate receipt")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=potvrzeni-%d.pdf", courseID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
