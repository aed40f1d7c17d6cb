package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolveInvoiceStatus(t *testing.T) {
	tests := []struct {
		paid, total string
		want        InvoiceStatus
	}{
		{"0.00", "50000.00", InvoiceUnpaid},
		{"0.01", "50000.00", InvoicePartial},
		{"49999.99", "50000.00", InvoicePartial},
		{"50000.00", "50000.00", InvoicePaid},
		{"60000.00", "50000.00", InvoicePaid},
		{"0.00", "0.00", InvoicePaid},
	}

	for _, tt := range tests {
		t.Run(tt.paid+"/"+tt.total, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveInvoiceStatus(d(tt.paid), d(tt.total)))
		})
	}
}

func TestInvoiceApplyAmountPaid(t *testing.T) {
	inv := Invoice{TotalAmount: d("60000.00"), Balance: d("60000.00"), Status: InvoiceUnpaid}

	assert.False(t, inv.ApplyAmountPaid(decimal.Zero), "unchanged invoice must report no change")

	assert.True(t, inv.ApplyAmountPaid(d("20000.00")))
	assert.Equal(t, "40000.00", inv.Balance.StringFixed(2))
	assert.Equal(t, InvoicePartial, inv.Status)
	assert.True(t, inv.IsOpen())

	assert.False(t, inv.ApplyAmountPaid(d("20000.00")))

	assert.True(t, inv.ApplyAmountPaid(d("70000.10")))
	assert.Equal(t, "-10000.10", inv.Balance.StringFixed(2))
	assert.Equal(t, InvoicePaid, inv.Status)
	assert.False(t, inv.IsOpen())
	assert.True(t, inv.Balance.Equal(inv.TotalAmount.Sub(inv.AmountPaid)))
}

func TestStudentFullName(t *testing.T) {
	assert.Equal(t, "Alice Johnson", Student{FirstName: "Alice", LastName: "Johnson"}.FullName())
	assert.Equal(t, "Alice", Student{FirstName: "Alice"}.FullName())
}

func TestFeeStructureTotal(t *testing.T) {
	fee := FeeStructure{TuitionFee: d("40000.00"), OtherFees: d("10000.00")}
	assert.Equal(t, "50000.00", fee.Total().StringFixed(2))
}
