package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/services"
)

type ReportService interface {
	Summary(ctx context.Context) (*services.SalesSummary, error)
}

type ReportHandler struct {
	Service ReportService
}

func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// GetSummary godoc
//
//	@Summary	Sales summary for admins
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	services.SalesSummary
//	@Security	BearerAuth
//	@Router		/admin/reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	data, err := h.Service.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
