package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLiquidationTransitions(t *testing.T) {
	require.True(t, LiquidationDraft.CanTransition(LiquidationSubmitted))
	require.True(t, LiquidationSubmitted.CanTransition(LiquidationApproved))
	require.True(t, LiquidationSubmitted.CanTransition(LiquidationRejected))
	require.False(t, LiquidationDraft.CanTransition(LiquidationApproved))
	require.False(t, LiquidationApproved.CanTransition(LiquidationSubmitted))
	require.False(t, LiquidationRejected.CanTransition(LiquidationApproved))
}

func TestVoucherTransitions(t *testing.T) {
	require.True(t, VoucherPending.CanTransition(VoucherApproved))
	require.True(t, VoucherPending.CanTransition(VoucherCancelled))
	require.True(t, VoucherApproved.CanTransition(VoucherPaid))
	require.True(t, VoucherApproved.CanTransition(VoucherCancelled))
	require.False(t, VoucherPending.CanTransition(VoucherPaid))
	require.False(t, VoucherPaid.CanTransition(VoucherCancelled))
	require.False(t, VoucherCancelled.CanTransition(VoucherApproved))
}

func TestDebitMemoAndDisbursementTransitions(t *testing.T) {
	require.True(t, DebitMemoDraft.CanTransition(DebitMemoPosted))
	require.True(t, DebitMemoPosted.CanTransition(DebitMemoCancelled))
	require.False(t, DebitMemoDraft.CanTransition(DebitMemoCancelled))
	require.False(t, DebitMemoCancelled.CanTransition(DebitMemoPosted))

	require.True(t, DisbursementPending.CanTransition(DisbursementCompleted))
	require.True(t, DisbursementPending.CanTransition(DisbursementCancelled))
	require.False(t, DisbursementCompleted.CanTransition(DisbursementCancelled))
}

func TestValidPaymentMethod(t *testing.T) {
	require.True(t, ValidPaymentMethod(PaymentCash))
	require.True(t, ValidPaymentMethod(PaymentBankTransfer))
	require.False(t, ValidPaymentMethod("wire"))
	require.False(t, ValidPaymentMethod(""))
}

func TestComputeLiquidationTotals(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []LiquidationItem{
		{Date: day, Amount: decimal.RequireFromString("300.25")},
		{Date: day, Amount: decimal.RequireFromString("199.75")},
	}

	// Under-spent: refund due to the company.
	totals := ComputeLiquidationTotals(decimal.RequireFromString("600"), items)
	require.True(t, totals.TotalExpenses.Equal(decimal.RequireFromString("500")))
	require.True(t, totals.Balance.Equal(decimal.RequireFromString("100")))
	require.True(t, totals.RefundDue.Equal(decimal.RequireFromString("100")))
	require.True(t, totals.ReimbursementDue.IsZero())

	// Over-spent: reimbursement due to the employee.
	totals = ComputeLiquidationTotals(decimal.RequireFromString("400"), items)
	require.True(t, totals.Balance.Equal(decimal.RequireFromString("-100")))
	require.True(t, totals.RefundDue.IsZero())
	require.True(t, totals.ReimbursementDue.Equal(decimal.RequireFromString("100")))

	// Exact: nothing due either way.
	totals = ComputeLiquidationTotals(decimal.RequireFromString("500"), items)
	require.True(t, totals.Balance.IsZero())
	require.True(t, totals.RefundDue.IsZero())
	require.True(t, totals.ReimbursementDue.IsZero())

	// No items at all.
	totals = ComputeLiquidationTotals(decimal.RequireFromString("500"), nil)
	require.True(t, totals.TotalExpenses.IsZero())
	require.True(t, totals.RefundDue.Equal(decimal.RequireFromString("500")))
}
