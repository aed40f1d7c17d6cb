package handler

import (
	"net/http"

	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/services/finance"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FinanceHandler struct {
	service *finance.Service
	store   repository.Store
	log     *zap.Logger
}

func NewFinanceHandler(s *finance.Service, store repository.Store, log *zap.Logger) *FinanceHandler {
	return &FinanceHandler{service: s, store: store, log: log}
}

type generateInvoiceRequest struct {
	StudentID uuid.UUID `json:"student_id"`
	TermID    uuid.UUID `json:"term_id"`
}

// GenerateInvoice returns 201 for a new invoice and 200 when the student already has one for the term.
func (h *FinanceHandler) GenerateInvoice(c *gin.Context) {
	var payload generateInvoiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	invoice, created, err := h.service.GenerateInvoice(c.Request.Context(), middleware.SchoolID(c), payload.StudentID, payload.TermID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created, "invoice": invoice})
}

func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	studentID, ok := optionalUUID(c, "student_id")
	if !ok {
		return
	}
	termID, ok := optionalUUID(c, "term_id")
	if !ok {
		return
	}

	items, err := h.store.ListInvoices(c.Request.Context(), middleware.SchoolID(c), repository.InvoiceFilter{
		StudentID: studentID,
		TermID:    termID,
		Status:    models.InvoiceStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// RecomputeInvoice rebuilds the invoice balance from its matched payments.
func (h *FinanceHandler) RecomputeInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.service.RecomputeInvoice(c.Request.Context(), middleware.SchoolID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var payload finance.RecordPaymentInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	payment, err := h.service.RecordPayment(c.Request.Context(), middleware.SchoolID(c), payload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "payment recorded", "payment": payment})
}

func (h *FinanceHandler) ListPayments(c *gin.Context) {
	studentID, ok := optionalUUID(c, "student_id")
	if !ok {
		return
	}
	invoiceID, ok := optionalUUID(c, "invoice_id")
	if !ok {
		return
	}

	items, err := h.store.ListPayments(c.Request.Context(), middleware.SchoolID(c), repository.PaymentFilter{
		StudentID: studentID,
		InvoiceID: invoiceID,
		Method:    models.PaymentMethod(c.Query("payment_method")),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *FinanceHandler) ListLedger(c *gin.Context) {
	studentID, ok := optionalUUID(c, "student_id")
	if !ok {
		return
	}
	invoiceID, ok := optionalUUID(c, "invoice_id")
	if !ok {
		return
	}

	items, err := h.store.ListLedgerEntries(c.Request.Context(), middleware.SchoolID(c), repository.LedgerFilter{
		StudentID: studentID,
		InvoiceID: invoiceID,
		EntryType: models.EntryType(c.Query("entry_type")),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
