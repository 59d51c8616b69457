package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type PaymentService interface {
	Plans() []services.Plan
	ValidatePromo(ctx context.Context, code string) (*models.PromoCode, error)
	CreateIntent(ctx context.Context, user *models.AuthUser, planType, promoCode string) (*services.IntentResult, error)
}

type PaymentHandler struct {
	Service PaymentService
}

func NewPaymentHandler(s PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

func (h *PaymentHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Plans())
}

type createIntentRequest struct {
	PlanType  string `json:"plan_type" binding:"required"`
	PromoCode string `json:"promo_code"`
}

// CreateIntent godoc
//
//	@Summary	Create a payment intent for a subscription plan
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Param		body	body		createIntentRequest	true	"Plan"
//	@Success	200		{object}	services.IntentResult
//	@Failure	400		{object}	map[string]string
//	@Security	BearerAuth
//	@Router		/payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_type is required"})
		return
	}

	res, err := h.Service.CreateIntent(c.Request.Context(), user, req.PlanType, req.PromoCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan type"})
		case errors.Is(err, services.ErrInvalidPromoCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired promo code"})
		case errors.Is(err, services.ErrZeroAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount after discount must be positive"})
		default:
			internalError(c, "[payments][intent] failed", err, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

type validatePromoRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *PaymentHandler) ValidatePromo(c *gin.Context) {
	var req validatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	promo, err := h.Service.ValidatePromo(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPromoCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired promo code"})
			return
		}
		internalError(c, "[payments][promo] lookup failed", err, "Failed to validate promo code")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":            true,
		"code":             promo.Code,
		"discount_percent": promo.DiscountPercent,
	})
}
