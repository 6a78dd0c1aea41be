package accounting

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/structura-erp/structura-erp/internal/shared"
)

type stubRepo struct {
	liquidations  map[int64]*Liquidation
	items         map[int64][]LiquidationItem
	memos         map[int64]*DebitMemo
	vouchers      map[int64]*CheckVoucher
	disbursements map[int64]*Disbursement
	nextID        int64
	seq           map[string]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		liquidations:  map[int64]*Liquidation{},
		items:         map[int64][]LiquidationItem{},
		memos:         map[int64]*DebitMemo{},
		vouchers:      map[int64]*CheckVoucher{},
		disbursements: map[int64]*Disbursement{},
		seq:           map[string]int64{},
	}
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &stubTx{repo: r})
}

func (r *stubRepo) GetLiquidation(_ context.Context, id int64) (Liquidation, []LiquidationItem, error) {
	liq, ok := r.liquidations[id]
	if !ok {
		return Liquidation{}, nil, ErrNotFound
	}
	return *liq, r.items[id], nil
}

func (r *stubRepo) GetDebitMemo(_ context.Context, id int64) (DebitMemo, error) {
	memo, ok := r.memos[id]
	if !ok {
		return DebitMemo{}, ErrNotFound
	}
	return *memo, nil
}

func (r *stubRepo) GetCheckVoucher(_ context.Context, id int64) (CheckVoucher, error) {
	voucher, ok := r.vouchers[id]
	if !ok {
		return CheckVoucher{}, ErrNotFound
	}
	return *voucher, nil
}

func (r *stubRepo) GetDisbursement(_ context.Context, id int64) (Disbursement, error) {
	disb, ok := r.disbursements[id]
	if !ok {
		return Disbursement{}, ErrNotFound
	}
	return *disb, nil
}

func (r *stubRepo) ListLiquidations(_ context.Context, limit, offset int, status string) ([]Liquidation, int, error) {
	var all []Liquidation
	for _, liq := range r.liquidations {
		if status == "" || string(liq.Status) == status {
			all = append(all, *liq)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (r *stubRepo) ListDebitMemos(_ context.Context, limit, offset int, status string) ([]DebitMemo, int, error) {
	var all []DebitMemo
	for _, memo := range r.memos {
		if status == "" || string(memo.Status) == status {
			all = append(all, *memo)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (r *stubRepo) ListCheckVouchers(_ context.Context, limit, offset int, status string) ([]CheckVoucher, int, error) {
	var all []CheckVoucher
	for _, voucher := range r.vouchers {
		if status == "" || string(voucher.Status) == status {
			all = append(all, *voucher)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (r *stubRepo) ListDisbursements(_ context.Context, limit, offset int, status string) ([]Disbursement, int, error) {
	var all []Disbursement
	for _, disb := range r.disbursements {
		if status == "" || string(disb.Status) == status {
			all = append(all, *disb)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

type stubTx struct {
	repo *stubRepo
}

func (tx *stubTx) NextNumber(_ context.Context, prefix string, day time.Time) (string, error) {
	key := prefix + day.Format("20060102")
	tx.repo.seq[key]++
	return shared.FormatNumber(prefix, day, tx.repo.seq[key]), nil
}

func (tx *stubTx) CreateLiquidation(_ context.Context, liq Liquidation) (int64, error) {
	tx.repo.nextID++
	liq.ID = tx.repo.nextID
	tx.repo.liquidations[liq.ID] = &liq
	return liq.ID, nil
}

func (tx *stubTx) InsertLiquidationItem(_ context.Context, item LiquidationItem) error {
	tx.repo.items[item.LiquidationID] = append(tx.repo.items[item.LiquidationID], item)
	return nil
}

func (tx *stubTx) DeleteLiquidationItems(_ context.Context, liquidationID int64) error {
	delete(tx.repo.items, liquidationID)
	return nil
}

func (tx *stubTx) SetLiquidationTotal(_ context.Context, id int64, total decimal.Decimal) error {
	tx.repo.liquidations[id].TotalExpenses = total
	return nil
}

func (tx *stubTx) UpdateLiquidationStatus(_ context.Context, id int64, status LiquidationStatus) error {
	tx.repo.liquidations[id].Status = status
	return nil
}

func (tx *stubTx) SetLiquidationDecision(_ context.Context, id int64, status LiquidationStatus, actorID int64, at time.Time, remarks string) error {
	liq := tx.repo.liquidations[id]
	liq.Status = status
	liq.ApprovedBy = actorID
	liq.ApprovedDate = at
	liq.Remarks = remarks
	return nil
}

func (tx *stubTx) CreateDebitMemo(_ context.Context, memo DebitMemo) (int64, error) {
	tx.repo.nextID++
	memo.ID = tx.repo.nextID
	tx.repo.memos[memo.ID] = &memo
	return memo.ID, nil
}

func (tx *stubTx) UpdateDebitMemoStatus(_ context.Context, id int64, status DebitMemoStatus, remarks string) error {
	memo := tx.repo.memos[id]
	memo.Status = status
	if remarks != "" {
		memo.Remarks = remarks
	}
	return nil
}

func (tx *stubTx) SetDebitMemoDecision(_ context.Context, id int64, status DebitMemoStatus, actorID int64, at time.Time, remarks string) error {
	memo := tx.repo.memos[id]
	memo.Status = status
	memo.ApprovedBy = actorID
	memo.ApprovedDate = at
	memo.Remarks = remarks
	return nil
}

func (tx *stubTx) CreateCheckVoucher(_ context.Context, voucher CheckVoucher) (int64, error) {
	tx.repo.nextID++
	voucher.ID = tx.repo.nextID
	tx.repo.vouchers[voucher.ID] = &voucher
	return voucher.ID, nil
}

func (tx *stubTx) UpdateCheckVoucherStatus(_ context.Context, id int64, status CheckVoucherStatus, remarks string) error {
	voucher := tx.repo.vouchers[id]
	voucher.Status = status
	if remarks != "" {
		voucher.Remarks = remarks
	}
	return nil
}

func (tx *stubTx) SetCheckVoucherDecision(_ context.Context, id int64, status CheckVoucherStatus, actorID int64, at time.Time, remarks string) error {
	voucher := tx.repo.vouchers[id]
	voucher.Status = status
	voucher.ApprovedBy = actorID
	voucher.ApprovedDate = at
	voucher.Remarks = remarks
	return nil
}

func (tx *stubTx) CreateDisbursement(_ context.Context, disb Disbursement) (int64, error) {
	tx.repo.nextID++
	disb.ID = tx.repo.nextID
	tx.repo.disbursements[disb.ID] = &disb
	return disb.ID, nil
}

func (tx *stubTx) UpdateDisbursementStatus(_ context.Context, id int64, status DisbursementStatus, remarks string) error {
	disb := tx.repo.disbursements[id]
	disb.Status = status
	if remarks != "" {
		disb.Remarks = remarks
	}
	return nil
}

type stubApprovals struct {
	logs []shared.ApprovalLog
}

func (s *stubApprovals) Record(_ context.Context, log shared.ApprovalLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubApprovals) EnsureSubmit(_ context.Context, module string, ref uuid.UUID, actorID int64, note string) error {
	for _, l := range s.logs {
		if l.RefID == ref && l.Action == shared.ApprovalSubmit {
			return nil
		}
	}
	s.logs = append(s.logs, shared.ApprovalLog{
		Module:  module,
		RefID:   ref,
		ActorID: actorID,
		Action:  shared.ApprovalSubmit,
		Note:    note,
	})
	return nil
}

func newTestService() (*Service, *stubRepo, *stubApprovals) {
	repo := newStubRepo()
	approvals := &stubApprovals{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, approvals, nil, logger)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo, approvals
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateLiquidationAssignsNumberAndTotals(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	liq, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{
		EmployeeID:        7,
		ProjectName:       "Warehouse Extension",
		CashAdvanceAmount: dec("45000.00"),
		CashAdvanceDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []LiquidationItemInput{
			{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Description: "Cement", Amount: dec("30000.00")},
			{Date: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), Description: "Rebar", Amount: dec("12500.50")},
		},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "LIQ-20250314-001", liq.Number)
	require.Equal(t, LiquidationDraft, liq.Status)
	require.True(t, liq.TotalExpenses.Equal(dec("42500.50")))
}

func TestCreateLiquidationSequencePerDay(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := CreateLiquidationInput{
		EmployeeID:        7,
		CashAdvanceAmount: dec("100"),
	}
	first, err := svc.CreateLiquidation(ctx, in, 1)
	require.NoError(t, err)
	second, err := svc.CreateLiquidation(ctx, in, 1)
	require.NoError(t, err)
	require.Equal(t, "LIQ-20250314-001", first.Number)
	require.Equal(t, "LIQ-20250314-002", second.Number)

	// Each prefix counts independently.
	memo, err := svc.CreateDebitMemo(ctx, CreateDebitMemoInput{VendorName: "ACME", Amount: dec("5")}, 1)
	require.NoError(t, err)
	require.Equal(t, "DM-20250314-001", memo.Number)
}

func TestCreateLiquidationValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{CashAdvanceAmount: dec("100")}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateLiquidation(ctx, CreateLiquidationInput{EmployeeID: 1, CashAdvanceAmount: dec("-5")}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateLiquidation(ctx, CreateLiquidationInput{
		EmployeeID:        1,
		CashAdvanceAmount: dec("100"),
		Items:             []LiquidationItemInput{{Date: time.Now(), Description: "x", Amount: dec("0")}},
	}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLiquidationWorkflow(t *testing.T) {
	svc, _, approvals := newTestService()
	ctx := context.Background()

	liq, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{
		EmployeeID:        7,
		CashAdvanceAmount: dec("1000"),
	}, 1)
	require.NoError(t, err)

	// Approve before submit is rejected.
	_, err = svc.ApproveLiquidation(ctx, liq.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	submitted, err := svc.SubmitLiquidation(ctx, liq.ID, 1)
	require.NoError(t, err)
	require.Equal(t, LiquidationSubmitted, submitted.Status)

	approved, err := svc.ApproveLiquidation(ctx, liq.ID, 9, "ok")
	require.NoError(t, err)
	require.Equal(t, LiquidationApproved, approved.Status)
	require.Equal(t, int64(9), approved.ApprovedBy)
	require.False(t, approved.ApprovedDate.IsZero())

	// Second approve is a workflow violation.
	_, err = svc.ApproveLiquidation(ctx, liq.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	require.Len(t, approvals.logs, 2)
	require.Equal(t, shared.ApprovalSubmit, approvals.logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestRejectLiquidationRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	liq, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{EmployeeID: 7, CashAdvanceAmount: dec("1000")}, 1)
	require.NoError(t, err)
	_, err = svc.SubmitLiquidation(ctx, liq.ID, 1)
	require.NoError(t, err)

	_, err = svc.RejectLiquidation(ctx, liq.ID, 9, "  ")
	require.ErrorIs(t, err, shared.ErrValidation)

	rejected, err := svc.RejectLiquidation(ctx, liq.ID, 9, "missing receipts")
	require.NoError(t, err)
	require.Equal(t, LiquidationRejected, rejected.Status)
	require.Equal(t, "missing receipts", rejected.Remarks)
}

func TestReplaceLiquidationItemsLockedAfterDecision(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	liq, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{
		EmployeeID:        7,
		CashAdvanceAmount: dec("1000"),
		Items: []LiquidationItemInput{
			{Date: time.Now(), Description: "Fuel", Amount: dec("200")},
		},
	}, 1)
	require.NoError(t, err)

	updated, items, err := svc.ReplaceLiquidationItems(ctx, liq.ID, []LiquidationItemInput{
		{Date: time.Now(), Description: "Fuel", Amount: dec("250")},
		{Date: time.Now(), Description: "Meals", Amount: dec("150")},
	}, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.True(t, updated.TotalExpenses.Equal(dec("400")))

	// Items stay editable while the document waits for a decision.
	_, err = svc.SubmitLiquidation(ctx, liq.ID, 1)
	require.NoError(t, err)
	updated, _, err = svc.ReplaceLiquidationItems(ctx, liq.ID, []LiquidationItemInput{
		{Date: time.Now(), Description: "Fuel", Amount: dec("300")},
	}, 1)
	require.NoError(t, err)
	require.True(t, updated.TotalExpenses.Equal(dec("300")))

	_, err = svc.ApproveLiquidation(ctx, liq.ID, 9, "")
	require.NoError(t, err)
	_, _, err = svc.ReplaceLiquidationItems(ctx, liq.ID, []LiquidationItemInput{
		{Date: time.Now(), Description: "Fuel", Amount: dec("100")},
	}, 1)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestLiquidationTotalsOnGet(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	liq, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{
		EmployeeID:        7,
		CashAdvanceAmount: dec("1000"),
		Items: []LiquidationItemInput{
			{Date: time.Now(), Description: "Gravel", Amount: dec("1200")},
		},
	}, 1)
	require.NoError(t, err)

	_, _, totals, err := svc.GetLiquidation(ctx, liq.ID)
	require.NoError(t, err)
	require.True(t, totals.Balance.Equal(dec("-200")))
	require.True(t, totals.ReimbursementDue.Equal(dec("200")))
	require.True(t, totals.RefundDue.IsZero())
}

func TestDebitMemoWorkflow(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	memo, err := svc.CreateDebitMemo(ctx, CreateDebitMemoInput{VendorName: "ACME Supply", Amount: dec("999.99")}, 3)
	require.NoError(t, err)
	require.Equal(t, DebitMemoDraft, memo.Status)
	require.Equal(t, int64(3), memo.PreparedBy)

	// Cancel before post violates the workflow.
	_, err = svc.CancelDebitMemo(ctx, memo.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	posted, err := svc.PostDebitMemo(ctx, memo.ID, 9)
	require.NoError(t, err)
	require.Equal(t, DebitMemoPosted, posted.Status)
	require.Equal(t, int64(9), posted.ApprovedBy)

	cancelled, err := svc.CancelDebitMemo(ctx, memo.ID, 9, "duplicate entry")
	require.NoError(t, err)
	require.Equal(t, DebitMemoCancelled, cancelled.Status)
	require.Equal(t, "duplicate entry", cancelled.Remarks)
	// Posting stamp survives the cancel.
	require.Equal(t, int64(9), cancelled.ApprovedBy)
}

func TestCheckVoucherApproveIdempotent(t *testing.T) {
	svc, repo, approvals := newTestService()
	ctx := context.Background()

	voucher, err := svc.CreateCheckVoucher(ctx, CreateCheckVoucherInput{
		PayeeName: "Delta Hardware",
		Amount:    dec("45000.50"),
	}, 3)
	require.NoError(t, err)
	require.Equal(t, "Forty-Five Thousand Pesos and 50/100 Only", voucher.AmountInWords)

	first, err := svc.ApproveCheckVoucher(ctx, voucher.ID, 9)
	require.NoError(t, err)
	require.Equal(t, VoucherApproved, first.Status)

	// Double submit of the approve action is a no-op.
	second, err := svc.ApproveCheckVoucher(ctx, voucher.ID, 11)
	require.NoError(t, err)
	require.Equal(t, VoucherApproved, second.Status)
	require.Equal(t, int64(9), repo.vouchers[voucher.ID].ApprovedBy)

	// Vouchers go straight to pending, so the decision backfills the
	// submit row before the approve entry.
	require.Len(t, approvals.logs, 2)
	require.Equal(t, shared.ApprovalSubmit, approvals.logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestCheckVoucherCancelRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	voucher, err := svc.CreateCheckVoucher(ctx, CreateCheckVoucherInput{PayeeName: "Delta", Amount: dec("100")}, 3)
	require.NoError(t, err)

	_, err = svc.CancelCheckVoucher(ctx, voucher.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	cancelled, err := svc.CancelCheckVoucher(ctx, voucher.ID, 9, "wrong payee")
	require.NoError(t, err)
	require.Equal(t, VoucherCancelled, cancelled.Status)
	require.Equal(t, "wrong payee", cancelled.Remarks)
}

func TestPayCheckVoucherRequiresApproval(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	voucher, err := svc.CreateCheckVoucher(ctx, CreateCheckVoucherInput{PayeeName: "Delta", Amount: dec("100")}, 3)
	require.NoError(t, err)

	_, err = svc.PayCheckVoucher(ctx, voucher.ID, 9)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.ApproveCheckVoucher(ctx, voucher.ID, 9)
	require.NoError(t, err)
	paid, err := svc.PayCheckVoucher(ctx, voucher.ID, 9)
	require.NoError(t, err)
	require.Equal(t, VoucherPaid, paid.Status)
}

func TestCreateDisbursementValidatesMethod(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateDisbursement(ctx, CreateDisbursementInput{
		RecipientName: "Crew Payroll",
		Amount:        dec("100"),
		PaymentMethod: "barter",
	}, 3)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCompleteDisbursementMarksLinkedVoucherPaid(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	voucher, err := svc.CreateCheckVoucher(ctx, CreateCheckVoucherInput{PayeeName: "Delta", Amount: dec("5000")}, 3)
	require.NoError(t, err)
	_, err = svc.ApproveCheckVoucher(ctx, voucher.ID, 9)
	require.NoError(t, err)

	disb, err := svc.CreateDisbursement(ctx, CreateDisbursementInput{
		RecipientName:  "Delta Hardware",
		Amount:         dec("5000"),
		PaymentMethod:  PaymentCheck,
		CheckVoucherID: voucher.ID,
	}, 3)
	require.NoError(t, err)
	require.Equal(t, "DISB-20250314-001", disb.Number)

	completed, err := svc.CompleteDisbursement(ctx, disb.ID, 3)
	require.NoError(t, err)
	require.Equal(t, DisbursementCompleted, completed.Status)
	require.Equal(t, VoucherPaid, repo.vouchers[voucher.ID].Status)
}

func TestCreateDisbursementRejectsUnapprovedVoucher(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	voucher, err := svc.CreateCheckVoucher(ctx, CreateCheckVoucherInput{PayeeName: "Delta", Amount: dec("5000")}, 3)
	require.NoError(t, err)

	_, err = svc.CreateDisbursement(ctx, CreateDisbursementInput{
		RecipientName:  "Delta Hardware",
		Amount:         dec("5000"),
		PaymentMethod:  PaymentCheck,
		CheckVoucherID: voucher.ID,
	}, 3)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestListLiquidationsPagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		_, err := svc.CreateLiquidation(ctx, CreateLiquidationInput{EmployeeID: 7, CashAdvanceAmount: dec("10")}, 1)
		require.NoError(t, err)
	}

	rows, pagination, err := svc.ListLiquidations(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, rows, 10)
	require.Equal(t, 13, pagination.Total)
	require.Equal(t, 2, pagination.TotalPages)

	rows, _, err = svc.ListLiquidations(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
}
