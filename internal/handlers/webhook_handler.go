package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/services"
)

const maxWebhookBody = int64(65536)

type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error)
}

type WebhookHandler struct {
	Service WebhookProcessor
}

func NewWebhookHandler(s WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{Service: s}
}

// Stripe: тело читаем целиком и без изменений, иначе подпись не сойдётся.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to read body"})
		return
	}

	res, err := h.Service.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		internalError(c, "[webhook][stripe] failed", err, "Webhook processing failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
