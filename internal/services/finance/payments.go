package finance

import (
	"context"
	"fmt"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordPaymentInput is a payment captured by staff rather than imported from a statement.
type RecordPaymentInput struct {
	StudentID       uuid.UUID            `json:"student_id" validate:"required"`
	InvoiceID       *uuid.UUID           `json:"invoice_id"`
	Amount          decimal.Decimal      `json:"amount"`
	Method          models.PaymentMethod `json:"payment_method" validate:"required,oneof=bank_transfer cash card"`
	Reference       string               `json:"reference" validate:"required,max=100"`
	Narration       string               `json:"narration"`
	TransactionDate time.Time            `json:"transaction_date"`
}

func (s *Service) validateInput(in RecordPaymentInput) error {
	if err := apperrors.FromValidator(s.validate.Struct(in)); err != nil {
		return err
	}
	if in.Amount.LessThan(MinimumPayment) {
		return apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidAmount,
			fmt.Sprintf("amount: must be at least %s", MinimumPayment.StringFixed(2))).
			WithContext("field", "amount")
	}
	if !in.Amount.Round(2).Equal(in.Amount) {
		return apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidAmount,
			"amount: must have at most 2 decimal places").
			WithContext("field", "amount")
	}
	return nil
}

// RecordPayment stores a matched manual payment together with its ledger credit and invoice recompute.
func (s *Service) RecordPayment(ctx context.Context, schoolID uuid.UUID, in RecordPaymentInput) (*models.Payment, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if in.TransactionDate.IsZero() {
		in.TransactionDate = time.Now()
	}

	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetStudent(ctx, schoolID, in.StudentID); err != nil {
			return err
		}
		if in.InvoiceID != nil {
			invoice, err := tx.GetInvoice(ctx, schoolID, *in.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.StudentID != in.StudentID {
				return apperrors.Validation("invoice_id", "invoice does not belong to student")
			}
		}

		studentID := in.StudentID
		now := time.Now()
		p := &models.Payment{
			ID:              uuid.New(),
			SchoolID:        schoolID,
			StudentID:       &studentID,
			InvoiceID:       in.InvoiceID,
			Amount:          in.Amount,
			Method:          in.Method,
			Reference:       in.Reference,
			Narration:       in.Narration,
			TransactionDate: in.TransactionDate.UTC(),
			Matched:         true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := ApplyPayment(ctx, tx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("school_id", schoolID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("method", string(payment.Method)),
		zap.String("amount", payment.Amount.StringFixed(2)))
	return payment, nil
}
