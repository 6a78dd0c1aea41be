package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/structura-erp/structura-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLiquidation(ctx context.Context, id int64) (Liquidation, []LiquidationItem, error)
	GetDebitMemo(ctx context.Context, id int64) (DebitMemo, error)
	GetCheckVoucher(ctx context.Context, id int64) (CheckVoucher, error)
	GetDisbursement(ctx context.Context, id int64) (Disbursement, error)
	ListLiquidations(ctx context.Context, limit, offset int, status string) ([]Liquidation, int, error)
	ListDebitMemos(ctx context.Context, limit, offset int, status string) ([]DebitMemo, int, error)
	ListCheckVouchers(ctx context.Context, limit, offset int, status string) ([]CheckVoucher, int, error)
	ListDisbursements(ctx context.Context, limit, offset int, status string) ([]Disbursement, int, error)
}

// ApprovalPort records workflow actions.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error
}

// AuditPort records audit entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements accounting document workflows.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalPort
	audit     AuditPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs an accounting service.
func NewService(repo RepositoryPort, approvals ApprovalPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) recordApproval(ctx context.Context, module string, docID, actorID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil || actorID == 0 {
		return
	}
	ref := shared.DocumentRef(module, docID)
	// Documents created directly in pending enter review at creation, so a
	// later action backfills the submit row to keep the history ordered.
	if action != shared.ApprovalSubmit {
		if err := s.approvals.EnsureSubmit(ctx, module, ref, actorID, ""); err != nil {
			s.logger.Warn("ensure submit approval", slog.String("module", module), slog.Int64("id", docID), slog.Any("error", err))
		}
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  module,
		RefID:   ref,
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
	if err != nil {
		s.logger.Warn("record approval", slog.String("module", module), slog.Int64("id", docID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("record audit", slog.String("entity", entity), slog.Int64("id", entityID), slog.Any("error", err))
	}
}

// ============================================================================
// LIQUIDATIONS
// ============================================================================

// LiquidationItemInput is one expense row in a create or replace request.
type LiquidationItemInput struct {
	Date          time.Time
	Description   string
	Category      string
	Amount        decimal.Decimal
	ReceiptNumber string
}

// CreateLiquidationInput carries fields for a new liquidation report.
type CreateLiquidationInput struct {
	EmployeeID        int64
	ProjectName       string
	CashAdvanceAmount decimal.Decimal
	CashAdvanceDate   time.Time
	LiquidationDate   time.Time
	Items             []LiquidationItemInput
	Remarks           string
}

func validateItems(items []LiquidationItemInput) error {
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("%w: item %d description required", ErrValidation, i+1)
		}
		if !item.Amount.IsPositive() {
			return fmt.Errorf("%w: item %d amount must be positive", ErrValidation, i+1)
		}
		if item.Date.IsZero() {
			return fmt.Errorf("%w: item %d date required", ErrValidation, i+1)
		}
	}
	return nil
}

// CreateLiquidation creates a draft liquidation with its expense items.
// The document number is assigned inside the insert transaction.
func (s *Service) CreateLiquidation(ctx context.Context, in CreateLiquidationInput, actorID int64) (*Liquidation, error) {
	if in.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: employee required", ErrValidation)
	}
	if !in.CashAdvanceAmount.IsPositive() {
		return nil, fmt.Errorf("%w: cash advance amount must be positive", ErrValidation)
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if in.LiquidationDate.IsZero() {
		in.LiquidationDate = s.now()
	}

	items := make([]LiquidationItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, LiquidationItem{
			Date:          it.Date,
			Description:   it.Description,
			Category:      it.Category,
			Amount:        it.Amount,
			ReceiptNumber: it.ReceiptNumber,
		})
	}
	totals := ComputeLiquidationTotals(in.CashAdvanceAmount, items)

	liq := Liquidation{
		EmployeeID:        in.EmployeeID,
		ProjectName:       in.ProjectName,
		CashAdvanceAmount: in.CashAdvanceAmount,
		CashAdvanceDate:   in.CashAdvanceDate,
		TotalExpenses:     totals.TotalExpenses,
		LiquidationDate:   in.LiquidationDate,
		Status:            LiquidationDraft,
		Remarks:           in.Remarks,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, shared.PrefixLiquidation, s.now())
		if err != nil {
			return err
		}
		liq.Number = number
		id, err := tx.CreateLiquidation(ctx, liq)
		if err != nil {
			return err
		}
		liq.ID = id
		for _, item := range items {
			item.LiquidationID = id
			if err := tx.InsertLiquidationItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create liquidation: %w", err)
	}

	s.recordAudit(ctx, actorID, "create", "liquidation", liq.ID, map[string]any{"number": liq.Number})
	return &liq, nil
}

// ReplaceLiquidationItems swaps the expense items of a pre-decision
// liquidation and recomputes its total in the same transaction.
func (s *Service) ReplaceLiquidationItems(ctx context.Context, id int64, inputs []LiquidationItemInput, actorID int64) (*Liquidation, []LiquidationItem, error) {
	liq, _, err := s.repo.GetLiquidation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if liq.Status != LiquidationDraft && liq.Status != LiquidationSubmitted {
		return nil, nil, fmt.Errorf("%w: liquidation %s is %s, items are locked after the decision", ErrInvalidState, liq.Number, liq.Status)
	}
	if err := validateItems(inputs); err != nil {
		return nil, nil, err
	}

	items := make([]LiquidationItem, 0, len(inputs))
	for _, it := range inputs {
		items = append(items, LiquidationItem{
			LiquidationID: id,
			Date:          it.Date,
			Description:   it.Description,
			Category:      it.Category,
			Amount:        it.Amount,
			ReceiptNumber: it.ReceiptNumber,
		})
	}
	totals := ComputeLiquidationTotals(liq.CashAdvanceAmount, items)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteLiquidationItems(ctx, id); err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.InsertLiquidationItem(ctx, item); err != nil {
				return err
			}
		}
		return tx.SetLiquidationTotal(ctx, id, totals.TotalExpenses)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("replace liquidation items: %w", err)
	}

	liq.TotalExpenses = totals.TotalExpenses
	s.recordAudit(ctx, actorID, "replace_items", "liquidation", id, map[string]any{"items": len(items)})
	return &liq, items, nil
}

// SubmitLiquidation moves a draft liquidation into review.
func (s *Service) SubmitLiquidation(ctx context.Context, id, actorID int64) (*Liquidation, error) {
	liq, _, err := s.repo.GetLiquidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !liq.Status.CanTransition(LiquidationSubmitted) {
		return nil, fmt.Errorf("%w: cannot submit liquidation %s from %s", ErrInvalidState, liq.Number, liq.Status)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateLiquidationStatus(ctx, id, LiquidationSubmitted)
	})
	if err != nil {
		return nil, fmt.Errorf("submit liquidation: %w", err)
	}
	liq.Status = LiquidationSubmitted
	s.recordApproval(ctx, "liquidation", id, actorID, shared.ApprovalSubmit, "")
	s.recordAudit(ctx, actorID, "submit", "liquidation", id, nil)
	return &liq, nil
}

// ApproveLiquidation approves a submitted liquidation, stamping the approver
// and timestamp in the same update.
func (s *Service) ApproveLiquidation(ctx context.Context, id, actorID int64, remarks string) (*Liquidation, error) {
	liq, _, err := s.repo.GetLiquidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !liq.Status.CanTransition(LiquidationApproved) {
		return nil, fmt.Errorf("%w: cannot approve liquidation %s from %s", ErrInvalidState, liq.Number, liq.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetLiquidationDecision(ctx, id, LiquidationApproved, actorID, at, remarks)
	})
	if err != nil {
		return nil, fmt.Errorf("approve liquidation: %w", err)
	}
	liq.Status = LiquidationApproved
	liq.ApprovedBy = actorID
	liq.ApprovedDate = at
	if remarks != "" {
		liq.Remarks = remarks
	}
	s.recordApproval(ctx, "liquidation", id, actorID, shared.ApprovalApprove, remarks)
	s.recordAudit(ctx, actorID, "approve", "liquidation", id, nil)
	return &liq, nil
}

// RejectLiquidation rejects a submitted liquidation. A reason is mandatory and
// is stored in remarks.
func (s *Service) RejectLiquidation(ctx context.Context, id, actorID int64, reason string) (*Liquidation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason required", ErrValidation)
	}
	liq, _, err := s.repo.GetLiquidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !liq.Status.CanTransition(LiquidationRejected) {
		return nil, fmt.Errorf("%w: cannot reject liquidation %s from %s", ErrInvalidState, liq.Number, liq.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetLiquidationDecision(ctx, id, LiquidationRejected, actorID, at, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("reject liquidation: %w", err)
	}
	liq.Status = LiquidationRejected
	liq.ApprovedBy = actorID
	liq.ApprovedDate = at
	liq.Remarks = reason
	s.recordApproval(ctx, "liquidation", id, actorID, shared.ApprovalReject, reason)
	s.recordAudit(ctx, actorID, "reject", "liquidation", id, map[string]any{"reason": reason})
	return &liq, nil
}

// GetLiquidation returns a liquidation, its items and derived totals.
func (s *Service) GetLiquidation(ctx context.Context, id int64) (*Liquidation, []LiquidationItem, LiquidationTotals, error) {
	liq, items, err := s.repo.GetLiquidation(ctx, id)
	if err != nil {
		return nil, nil, LiquidationTotals{}, err
	}
	totals := ComputeLiquidationTotals(liq.CashAdvanceAmount, items)
	return &liq, items, totals, nil
}

// ListLiquidations returns one page of liquidations.
func (s *Service) ListLiquidations(ctx context.Context, page int, status string) ([]Liquidation, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListLiquidations(ctx, p.PerPage, p.Offset(), status)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list liquidations: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ============================================================================
// DEBIT MEMOS
// ============================================================================

// CreateDebitMemoInput carries fields for a new debit memo.
type CreateDebitMemoInput struct {
	MemoDate         time.Time
	VendorName       string
	VendorAddress    string
	ReferenceInvoice string
	Reason           string
	Amount           decimal.Decimal
	Remarks          string
}

// CreateDebitMemo creates a draft debit memo.
func (s *Service) CreateDebitMemo(ctx context.Context, in CreateDebitMemoInput, actorID int64) (*DebitMemo, error) {
	if strings.TrimSpace(in.VendorName) == "" {
		return nil, fmt.Errorf("%w: vendor name required", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.MemoDate.IsZero() {
		in.MemoDate = s.now()
	}

	memo := DebitMemo{
		MemoDate:         in.MemoDate,
		VendorName:       in.VendorName,
		VendorAddress:    in.VendorAddress,
		ReferenceInvoice: in.ReferenceInvoice,
		Reason:           in.Reason,
		Amount:           in.Amount,
		Status:           DebitMemoDraft,
		PreparedBy:       actorID,
		Remarks:          in.Remarks,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, shared.PrefixDebitMemo, s.now())
		if err != nil {
			return err
		}
		memo.Number = number
		memo.ID, err = tx.CreateDebitMemo(ctx, memo)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create debit memo: %w", err)
	}

	s.recordAudit(ctx, actorID, "create", "debit_memo", memo.ID, map[string]any{"number": memo.Number})
	return &memo, nil
}

// PostDebitMemo posts a draft memo, stamping the posting actor.
func (s *Service) PostDebitMemo(ctx context.Context, id, actorID int64) (*DebitMemo, error) {
	memo, err := s.repo.GetDebitMemo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !memo.Status.CanTransition(DebitMemoPosted) {
		return nil, fmt.Errorf("%w: cannot post debit memo %s from %s", ErrInvalidState, memo.Number, memo.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetDebitMemoDecision(ctx, id, DebitMemoPosted, actorID, at, memo.Remarks)
	})
	if err != nil {
		return nil, fmt.Errorf("post debit memo: %w", err)
	}
	memo.Status = DebitMemoPosted
	memo.ApprovedBy = actorID
	memo.ApprovedDate = at
	s.recordApproval(ctx, "debit_memo", id, actorID, shared.ApprovalPost, "")
	s.recordAudit(ctx, actorID, "post", "debit_memo", id, nil)
	return &memo, nil
}

// CancelDebitMemo cancels a posted memo. The approver stamp from posting is
// left intact.
func (s *Service) CancelDebitMemo(ctx context.Context, id, actorID int64, reason string) (*DebitMemo, error) {
	memo, err := s.repo.GetDebitMemo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !memo.Status.CanTransition(DebitMemoCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel debit memo %s from %s", ErrInvalidState, memo.Number, memo.Status)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateDebitMemoStatus(ctx, id, DebitMemoCancelled, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel debit memo: %w", err)
	}
	memo.Status = DebitMemoCancelled
	if reason != "" {
		memo.Remarks = reason
	}
	s.recordApproval(ctx, "debit_memo", id, actorID, shared.ApprovalCancel, reason)
	s.recordAudit(ctx, actorID, "cancel", "debit_memo", id, map[string]any{"reason": reason})
	return &memo, nil
}

// GetDebitMemo returns a debit memo by ID.
func (s *Service) GetDebitMemo(ctx context.Context, id int64) (*DebitMemo, error) {
	memo, err := s.repo.GetDebitMemo(ctx, id)
	if err != nil {
		return nil, err
	}
	return &memo, nil
}

// ListDebitMemos returns one page of debit memos.
func (s *Service) ListDebitMemos(ctx context.Context, page int, status string) ([]DebitMemo, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListDebitMemos(ctx, p.PerPage, p.Offset(), status)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list debit memos: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ============================================================================
// CHECK VOUCHERS
// ============================================================================

// CreateCheckVoucherInput carries fields for a new check voucher.
type CreateCheckVoucherInput struct {
	VoucherDate   time.Time
	PayeeName     string
	PayeeAddress  string
	CheckNumber   string
	CheckDate     time.Time
	BankName      string
	Amount        decimal.Decimal
	Particulars   string
	InvoiceNumber string
	ProjectName   string
	Remarks       string
}

// CreateCheckVoucher creates a pending voucher. The amount-in-words line is
// always derived from the amount, never accepted from the caller.
func (s *Service) CreateCheckVoucher(ctx context.Context, in CreateCheckVoucherInput, actorID int64) (*CheckVoucher, error) {
	if strings.TrimSpace(in.PayeeName) == "" {
		return nil, fmt.Errorf("%w: payee name required", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.VoucherDate.IsZero() {
		in.VoucherDate = s.now()
	}

	voucher := CheckVoucher{
		VoucherDate:   in.VoucherDate,
		PayeeName:     in.PayeeName,
		PayeeAddress:  in.PayeeAddress,
		CheckNumber:   in.CheckNumber,
		CheckDate:     in.CheckDate,
		BankName:      in.BankName,
		Amount:        in.Amount,
		AmountInWords: AmountInWords(in.Amount),
		Particulars:   in.Particulars,
		InvoiceNumber: in.InvoiceNumber,
		ProjectName:   in.ProjectName,
		Status:        VoucherPending,
		PreparedBy:    actorID,
		Remarks:       in.Remarks,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, shared.PrefixCheckVoucher, s.now())
		if err != nil {
			return err
		}
		voucher.Number = number
		voucher.ID, err = tx.CreateCheckVoucher(ctx, voucher)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create check voucher: %w", err)
	}

	s.recordAudit(ctx, actorID, "create", "check_voucher", voucher.ID, map[string]any{"number": voucher.Number})
	return &voucher, nil
}

// ApproveCheckVoucher approves a pending voucher. Approving an already
// approved voucher is a no-op so double-submits do not error.
func (s *Service) ApproveCheckVoucher(ctx context.Context, id, actorID int64) (*CheckVoucher, error) {
	voucher, err := s.repo.GetCheckVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.Status == VoucherApproved {
		return &voucher, nil
	}
	if !voucher.Status.CanTransition(VoucherApproved) {
		return nil, fmt.Errorf("%w: cannot approve check voucher %s from %s", ErrInvalidState, voucher.Number, voucher.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetCheckVoucherDecision(ctx, id, VoucherApproved, actorID, at, voucher.Remarks)
	})
	if err != nil {
		return nil, fmt.Errorf("approve check voucher: %w", err)
	}
	voucher.Status = VoucherApproved
	voucher.ApprovedBy = actorID
	voucher.ApprovedDate = at
	s.recordApproval(ctx, "check_voucher", id, actorID, shared.ApprovalApprove, "")
	s.recordAudit(ctx, actorID, "approve", "check_voucher", id, nil)
	return &voucher, nil
}

// PayCheckVoucher marks an approved voucher as paid.
func (s *Service) PayCheckVoucher(ctx context.Context, id, actorID int64) (*CheckVoucher, error) {
	voucher, err := s.repo.GetCheckVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	if !voucher.Status.CanTransition(VoucherPaid) {
		return nil, fmt.Errorf("%w: cannot pay check voucher %s from %s", ErrInvalidState, voucher.Number, voucher.Status)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateCheckVoucherStatus(ctx, id, VoucherPaid, "")
	})
	if err != nil {
		return nil, fmt.Errorf("pay check voucher: %w", err)
	}
	voucher.Status = VoucherPaid
	s.recordApproval(ctx, "check_voucher", id, actorID, shared.ApprovalPay, "")
	s.recordAudit(ctx, actorID, "pay", "check_voucher", id, nil)
	return &voucher, nil
}

// CancelCheckVoucher cancels a pending or approved voucher. A reason is
// mandatory and is stored in remarks.
func (s *Service) CancelCheckVoucher(ctx context.Context, id, actorID int64, reason string) (*CheckVoucher, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason required", ErrValidation)
	}
	voucher, err := s.repo.GetCheckVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	if !voucher.Status.CanTransition(VoucherCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel check voucher %s from %s", ErrInvalidState, voucher.Number, voucher.Status)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateCheckVoucherStatus(ctx, id, VoucherCancelled, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel check voucher: %w", err)
	}
	voucher.Status = VoucherCancelled
	voucher.Remarks = reason
	s.recordApproval(ctx, "check_voucher", id, actorID, shared.ApprovalCancel, reason)
	s.recordAudit(ctx, actorID, "cancel", "check_voucher", id, map[string]any{"reason": reason})
	return &voucher, nil
}

// GetCheckVoucher returns a check voucher by ID.
func (s *Service) GetCheckVoucher(ctx context.Context, id int64) (*CheckVoucher, error) {
	voucher, err := s.repo.GetCheckVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// ListCheckVouchers returns one page of check vouchers.
func (s *Service) ListCheckVouchers(ctx context.Context, page int, status string) ([]CheckVoucher, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListCheckVouchers(ctx, p.PerPage, p.Offset(), status)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list check vouchers: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ============================================================================
// DISBURSEMENTS
// ============================================================================

// CreateDisbursementInput carries fields for a new disbursement.
type CreateDisbursementInput struct {
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
	Remarks          string
}

// CreateDisbursement creates a pending disbursement. When linked to a check
// voucher the voucher must exist and be approved.
func (s *Service) CreateDisbursement(ctx context.Context, in CreateDisbursementInput, actorID int64) (*Disbursement, error) {
	if strings.TrimSpace(in.RecipientName) == "" {
		return nil, fmt.Errorf("%w: recipient name required", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !ValidPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	if in.DisbursementDate.IsZero() {
		in.DisbursementDate = s.now()
	}
	if in.CheckVoucherID != 0 {
		voucher, err := s.repo.GetCheckVoucher(ctx, in.CheckVoucherID)
		if err != nil {
			return nil, fmt.Errorf("linked check voucher: %w", err)
		}
		if voucher.Status != VoucherApproved && voucher.Status != VoucherPaid {
			return nil, fmt.Errorf("%w: linked check voucher %s is %s, want approved", ErrInvalidState, voucher.Number, voucher.Status)
		}
	}

	disb := Disbursement{
		DisbursementDate: in.DisbursementDate,
		RecipientName:    in.RecipientName,
		RecipientType:    in.RecipientType,
		Amount:           in.Amount,
		PaymentMethod:    in.PaymentMethod,
		ReferenceNumber:  in.ReferenceNumber,
		Purpose:          in.Purpose,
		Category:         in.Category,
		ProjectName:      in.ProjectName,
		CheckVoucherID:   in.CheckVoucherID,
		Status:           DisbursementPending,
		ProcessedBy:      actorID,
		Remarks:          in.Remarks,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, shared.PrefixDisbursement, s.now())
		if err != nil {
			return err
		}
		disb.Number = number
		disb.ID, err = tx.CreateDisbursement(ctx, disb)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create disbursement: %w", err)
	}

	s.recordAudit(ctx, actorID, "create", "disbursement", disb.ID, map[string]any{"number": disb.Number})
	return &disb, nil
}

// CompleteDisbursement marks a pending disbursement as completed. A linked
// approved check voucher is marked paid in the same transaction.
func (s *Service) CompleteDisbursement(ctx context.Context, id, actorID int64) (*Disbursement, error) {
	disb, err := s.repo.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !disb.Status.CanTransition(DisbursementCompleted) {
		return nil, fmt.Errorf("%w: cannot complete disbursement %s from %s", ErrInvalidState, disb.Number, disb.Status)
	}
	var voucher CheckVoucher
	if disb.CheckVoucherID != 0 {
		voucher, err = s.repo.GetCheckVoucher(ctx, disb.CheckVoucherID)
		if err != nil {
			return nil, fmt.Errorf("linked check voucher: %w", err)
		}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateDisbursementStatus(ctx, id, DisbursementCompleted, ""); err != nil {
			return err
		}
		if voucher.ID != 0 && voucher.Status == VoucherApproved {
			return tx.UpdateCheckVoucherStatus(ctx, voucher.ID, VoucherPaid, "")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete disbursement: %w", err)
	}
	disb.Status = DisbursementCompleted
	s.recordApproval(ctx, "disbursement", id, actorID, shared.ApprovalComplete, "")
	s.recordAudit(ctx, actorID, "complete", "disbursement", id, nil)
	return &disb, nil
}

// CancelDisbursement cancels a pending disbursement.
func (s *Service) CancelDisbursement(ctx context.Context, id, actorID int64, reason string) (*Disbursement, error) {
	disb, err := s.repo.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !disb.Status.CanTransition(DisbursementCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel disbursement %s from %s", ErrInvalidState, disb.Number, disb.Status)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateDisbursementStatus(ctx, id, DisbursementCancelled, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel disbursement: %w", err)
	}
	disb.Status = DisbursementCancelled
	if reason != "" {
		disb.Remarks = reason
	}
	s.recordApproval(ctx, "disbursement", id, actorID, shared.ApprovalCancel, reason)
	s.recordAudit(ctx, actorID, "cancel", "disbursement", id, map[string]any{"reason": reason})
	return &disb, nil
}

// GetDisbursement returns a disbursement by ID.
func (s *Service) GetDisbursement(ctx context.Context, id int64) (*Disbursement, error) {
	disb, err := s.repo.GetDisbursement(ctx, id)
	if err != nil {
		return nil, err
	}
	return &disb, nil
}

// ListDisbursements returns one page of disbursements.
func (s *Service) ListDisbursements(ctx context.Context, page int, status string) ([]Disbursement, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListDisbursements(ctx, p.PerPage, p.Offset(), status)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list disbursements: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}
