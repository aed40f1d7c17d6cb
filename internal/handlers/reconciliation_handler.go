package handler

import (
	"net/http"
	"strconv"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	service "school-finance-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReconciliationHandler struct {
	service *service.ReconciliationService
	log     *zap.Logger
}

func NewReconciliationHandler(s *service.ReconciliationService, log *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{service: s, log: log}
}

// Upload imports a CSV or XLSX bank statement sent as the multipart field "file".
func (h *ReconciliationHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required", "code": apperrors.CodeMissingField})
		return
	}
	defer file.Close()

	schoolID := middleware.SchoolID(c)
	h.log.Info("statement received",
		zap.String("school_id", schoolID.String()),
		zap.String("file", header.Filename),
		zap.Int64("size", header.Size),
	)

	result, err := h.service.ImportFile(c.Request.Context(), schoolID, header.Filename, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "statement imported",
		"batch_id": result.Batch.ID.String(),
		"created":  result.Created,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	})
}

// RunMatching scores every unmatched transaction of the school.
func (h *ReconciliationHandler) RunMatching(c *gin.Context) {
	run, err := h.service.RunMatching(c.Request.Context(), middleware.SchoolID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

type approveRequest struct {
	StudentID uuid.UUID  `json:"student_id"`
	InvoiceID *uuid.UUID `json:"invoice_id"`
}

// ApproveMatch materializes a reviewed match for the transaction in the path.
func (h *ReconciliationHandler) ApproveMatch(c *gin.Context) {
	var payload approveRequest
	if err := c.ShouldBindJSON(&payload); err != nil || payload.StudentID == uuid.Nil {
		badRequest(c, "invalid payload: student_id is required")
		return
	}

	payment, err := h.service.ApproveMatch(c.Request.Context(), middleware.SchoolID(c), c.Param("reference"), service.ApproveInput{
		StudentID:   payload.StudentID,
		InvoiceID:   payload.InvoiceID,
		PerformedBy: middleware.UserID(c),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "match approved", "payment": payment})
}

func (h *ReconciliationHandler) ListTransactions(c *gin.Context) {
	var filter repository.TransactionFilter
	if raw := c.Query("matched"); raw != "" {
		matched, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid matched")
			return
		}
		filter.Matched = &matched
	}

	items, err := h.service.ListTransactions(c.Request.Context(), middleware.SchoolID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *ReconciliationHandler) ListLogs(c *gin.Context) {
	studentID, ok := optionalUUID(c, "student_id")
	if !ok {
		return
	}
	batchID, ok := optionalUUID(c, "batch_id")
	if !ok {
		return
	}
	filter := repository.LogFilter{
		Status:           models.ReconciliationStatus(c.Query("status")),
		MatchedStudentID: studentID,
		BatchID:          batchID,
	}

	items, err := h.service.ListLogs(c.Request.Context(), middleware.SchoolID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetBatch reports the counters of an import or matching batch.
func (h *ReconciliationHandler) GetBatch(c *gin.Context) {
	batchID, ok := uuidParam(c, "batchId")
	if !ok {
		return
	}

	batch, err := h.service.GetBatch(c.Request.Context(), middleware.SchoolID(c), batchID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
