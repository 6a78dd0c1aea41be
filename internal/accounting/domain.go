package accounting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/structura-erp/structura-erp/internal/shared"
)

// Liquidation report lifecycle statuses.
type LiquidationStatus string

const (
	LiquidationDraft     LiquidationStatus = "draft"
	LiquidationSubmitted LiquidationStatus = "submitted"
	LiquidationApproved  LiquidationStatus = "approved"
	LiquidationRejected  LiquidationStatus = "rejected"
)

// Debit memo lifecycle statuses.
type DebitMemoStatus string

const (
	DebitMemoDraft     DebitMemoStatus = "draft"
	DebitMemoPosted    DebitMemoStatus = "posted"
	DebitMemoCancelled DebitMemoStatus = "cancelled"
)

// Check voucher lifecycle statuses.
type CheckVoucherStatus string

const (
	VoucherPending   CheckVoucherStatus = "pending"
	VoucherApproved  CheckVoucherStatus = "approved"
	VoucherPaid      CheckVoucherStatus = "paid"
	VoucherCancelled CheckVoucherStatus = "cancelled"
)

// Disbursement lifecycle statuses.
type DisbursementStatus string

const (
	DisbursementPending   DisbursementStatus = "pending"
	DisbursementCompleted DisbursementStatus = "completed"
	DisbursementCancelled DisbursementStatus = "cancelled"
)

// PaymentMethod enumerates how a disbursement was paid out.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCheck        PaymentMethod = "check"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOnline       PaymentMethod = "online"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentBankTransfer, PaymentOnline:
		return true
	}
	return false
}

var liquidationTransitions = map[LiquidationStatus][]LiquidationStatus{
	LiquidationDraft:     {LiquidationSubmitted},
	LiquidationSubmitted: {LiquidationApproved, LiquidationRejected},
}

var debitMemoTransitions = map[DebitMemoStatus][]DebitMemoStatus{
	DebitMemoDraft:  {DebitMemoPosted},
	DebitMemoPosted: {DebitMemoCancelled},
}

var voucherTransitions = map[CheckVoucherStatus][]CheckVoucherStatus{
	VoucherPending:  {VoucherApproved, VoucherCancelled},
	VoucherApproved: {VoucherPaid, VoucherCancelled},
}

var disbursementTransitions = map[DisbursementStatus][]DisbursementStatus{
	DisbursementPending: {DisbursementCompleted, DisbursementCancelled},
}

// CanTransition reports whether the liquidation workflow allows from -> to.
func (s LiquidationStatus) CanTransition(to LiquidationStatus) bool {
	return containsStatus(liquidationTransitions[s], to)
}

// CanTransition reports whether the debit memo workflow allows from -> to.
func (s DebitMemoStatus) CanTransition(to DebitMemoStatus) bool {
	return containsStatus(debitMemoTransitions[s], to)
}

// CanTransition reports whether the check voucher workflow allows from -> to.
func (s CheckVoucherStatus) CanTransition(to CheckVoucherStatus) bool {
	return containsStatus(voucherTransitions[s], to)
}

// CanTransition reports whether the disbursement workflow allows from -> to.
func (s DisbursementStatus) CanTransition(to DisbursementStatus) bool {
	return containsStatus(disbursementTransitions[s], to)
}

func containsStatus[T comparable](haystack []T, needle T) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Liquidation reports a cash advance against itemised expenses.
type Liquidation struct {
	ID                int64
	Number            string
	EmployeeID        int64
	ProjectName       string
	CashAdvanceAmount decimal.Decimal
	CashAdvanceDate   time.Time
	TotalExpenses     decimal.Decimal
	LiquidationDate   time.Time
	Status            LiquidationStatus
	ApprovedBy        int64
	ApprovedDate      time.Time
	Remarks           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LiquidationItem is a single expense row under a liquidation.
type LiquidationItem struct {
	ID            int64
	LiquidationID int64
	Date          time.Time
	Description   string
	Category      string
	Amount        decimal.Decimal
	ReceiptNumber string
	CreatedAt     time.Time
}

// LiquidationTotals carries the derived financial figures of a liquidation.
type LiquidationTotals struct {
	TotalExpenses    decimal.Decimal
	Balance          decimal.Decimal
	RefundDue        decimal.Decimal
	ReimbursementDue decimal.Decimal
}

// ComputeLiquidationTotals derives all liquidation figures in one place.
// Exactly one of RefundDue/ReimbursementDue is non-zero when Balance != 0.
func ComputeLiquidationTotals(cashAdvance decimal.Decimal, items []LiquidationItem) LiquidationTotals {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	total = total.Round(2)
	balance := cashAdvance.Sub(total)
	totals := LiquidationTotals{
		TotalExpenses:    total,
		Balance:          balance,
		RefundDue:        decimal.Zero,
		ReimbursementDue: decimal.Zero,
	}
	switch {
	case balance.IsPositive():
		totals.RefundDue = balance
	case balance.IsNegative():
		totals.ReimbursementDue = balance.Abs()
	}
	return totals
}

// DebitMemo records an adjustment or correction against a vendor.
type DebitMemo struct {
	ID               int64
	Number           string
	MemoDate         time.Time
	VendorName       string
	VendorAddress    string
	ReferenceInvoice string
	Reason           string
	Amount           decimal.Decimal
	Status           DebitMemoStatus
	PreparedBy       int64
	ApprovedBy       int64
	ApprovedDate     time.Time
	Remarks          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CheckVoucher authorises a check payment to a payee.
type CheckVoucher struct {
	ID            int64
	Number        string
	VoucherDate   time.Time
	PayeeName     string
	PayeeAddress  string
	CheckNumber   string
	CheckDate     time.Time
	BankName      string
	Amount        decimal.Decimal
	AmountInWords string
	Particulars   string
	InvoiceNumber string
	ProjectName   string
	Status        CheckVoucherStatus
	PreparedBy    int64
	ApprovedBy    int64
	ApprovedDate  time.Time
	Remarks       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Disbursement records cash going out, optionally tied to a check voucher.
type Disbursement struct {
	ID               int64
	Number           string
	DisbursementDate time.Time
	RecipientName    string
	RecipientType    string
	Amount           decimal.Decimal
	PaymentMethod    PaymentMethod
	ReferenceNumber  string
	Purpose          string
	Category         string
	ProjectName      string
	CheckVoucherID   int64
	Status           DisbursementStatus
	ProcessedBy      int64
	Remarks          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("accounting: %w", shared.ErrNotFound)
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = fmt.Errorf("accounting: %w", shared.ErrInvalidState)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("accounting: %w", shared.ErrValidation)
	// ErrDuplicateNumber indicates a document number collision.
	ErrDuplicateNumber = fmt.Errorf("accounting: document number: %w", shared.ErrDuplicate)
)
