package handler

import (
	"net/http"

	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/services/reports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	service *reports.Service
	log     *zap.Logger
}

func NewReportHandler(s *reports.Service, log *zap.Logger) *ReportHandler {
	return &ReportHandler{service: s, log: log}
}

func (h *ReportHandler) TermRevenue(c *gin.Context) {
	termID, ok := requiredUUID(c, "term_id")
	if !ok {
		return
	}

	report, err := h.service.TermRevenue(c.Request.Context(), middleware.SchoolID(c), termID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) OutstandingBalances(c *gin.Context) {
	total, err := h.service.OutstandingBalances(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outstanding": total})
}

func (h *ReportHandler) RevenueByClass(c *gin.Context) {
	termID, ok := requiredUUID(c, "term_id")
	if !ok {
		return
	}

	rows, err := h.service.RevenueByClass(c.Request.Context(), middleware.SchoolID(c), termID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}
