package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type CheckoutService interface {
	StartCourseCheckout(ctx context.Context, user *models.AuthUser, courseID int64) (*services.CheckoutSession, error)
	VerifyPurchase(ctx context.Context, userID uuid.UUID, sessionID string) (*services.VerifyResult, error)
}

type CheckoutHandler struct {
	Service CheckoutService
}

func NewCheckoutHandler(s CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Service: s}
}

type checkoutCourseRequest struct {
	CourseID int64 `json:"course_id" binding:"required,gt=0"`
}

// StartCourse godoc
//
//	@Summary	Create a hosted checkout session for a course
//	@Tags		checkout
//	@Accept		json
//	@Produce	json
//	@Param		body	body		checkoutCourseRequest	true	"Course"
//	@Success	200		{object}	map[string]string
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Security	BearerAuth
//	@Router		/checkout/course [post]
func (h *CheckoutHandler) StartCourse(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkoutCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id is required"})
		return
	}

	sess, err := h.Service.StartCourseCheckout(c.Request.Context(), user, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		case errors.Is(err, services.ErrAlreadyPurchased):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Course already purchased"})
		default:
			// сообщение платёжки отдаём как есть
			internalError(c, "[checkout][start] failed", err, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID, "url": sess.URL})
}

type verifyPurchaseRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Verify godoc
//
//	@Summary	Verify a paid checkout session and grant the course
//	@Tags		checkout
//	@Accept		json
//	@Produce	json
//	@Param		body	body		verifyPurchaseRequest	true	"Session"
//	@Success	200		{object}	services.VerifyResult
//	@Failure	403		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Security	BearerAuth
//	@Router		/checkout/verify [post]
func (h *CheckoutHandler) Verify(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req verifyPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	res, err := h.Service.VerifyPurchase(c.Request.Context(), user.ID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, services.ErrSessionUserMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to this user"})
		case errors.Is(err, services.ErrSessionMetadata):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session metadata"})
		default:
			internalError(c, "[checkout][verify] failed", err, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, res)
}
