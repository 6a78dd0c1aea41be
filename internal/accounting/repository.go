package accounting

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/structura-erp/structura-erp/internal/platform/db"
	"github.com/structura-erp/structura-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool      *pgxpool.Pool
	sequencer shared.Sequencer
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, sequencer shared.Sequencer) *Repository {
	return &Repository{pool: pool, sequencer: sequencer}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextNumber(ctx context.Context, prefix string, day time.Time) (string, error)
	CreateLiquidation(ctx context.Context, liq Liquidation) (int64, error)
	InsertLiquidationItem(ctx context.Context, item LiquidationItem) error
	DeleteLiquidationItems(ctx context.Context, liquidationID int64) error
	SetLiquidationTotal(ctx context.Context, id int64, total decimal.Decimal) error
	UpdateLiquidationStatus(ctx context.Context, id int64, status LiquidationStatus) error
	SetLiquidationDecision(ctx context.Context, id int64, status LiquidationStatus, actorID int64, at time.Time, remarks string) error
	CreateDebitMemo(ctx context.Context, memo DebitMemo) (int64, error)
	UpdateDebitMemoStatus(ctx context.Context, id int64, status DebitMemoStatus, remarks string) error
	SetDebitMemoDecision(ctx context.Context, id int64, status DebitMemoStatus, actorID int64, at time.Time, remarks string) error
	CreateCheckVoucher(ctx context.Context, voucher CheckVoucher) (int64, error)
	UpdateCheckVoucherStatus(ctx context.Context, id int64, status CheckVoucherStatus, remarks string) error
	SetCheckVoucherDecision(ctx context.Context, id int64, status CheckVoucherStatus, actorID int64, at time.Time, remarks string) error
	CreateDisbursement(ctx context.Context, disb Disbursement) (int64, error)
	UpdateDisbursementStatus(ctx context.Context, id int64, status DisbursementStatus, remarks string) error
}

type txRepo struct {
	tx        pgx.Tx
	sequencer shared.Sequencer
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, sequencer: r.sequencer})
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// translateError surfaces a unique violation on a number column as a domain error.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateNumber
	}
	return err
}

// Fetch helpers

// GetLiquidation returns a liquidation and its expense items.
func (r *Repository) GetLiquidation(ctx context.Context, id int64) (Liquidation, []LiquidationItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, number, employee_id, project_name, cash_advance_amount,
	cash_advance_date, total_expenses, liquidation_date, status, approved_by, approved_date,
	remarks, created_at, updated_at
FROM liquidations WHERE id = $1`, id)

	var liq Liquidation
	var approvedBy pgtype.Int8
	var approvedDate pgtype.Timestamptz
	err := row.Scan(&liq.ID, &liq.Number, &liq.EmployeeID, &liq.ProjectName, &liq.CashAdvanceAmount,
		&liq.CashAdvanceDate, &liq.TotalExpenses, &liq.LiquidationDate, &liq.Status, &approvedBy,
		&approvedDate, &liq.Remarks, &liq.CreatedAt, &liq.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Liquidation{}, nil, ErrNotFound
		}
		return Liquidation{}, nil, err
	}
	if approvedBy.Valid {
		liq.ApprovedBy = approvedBy.Int64
	}
	if approvedDate.Valid {
		liq.ApprovedDate = approvedDate.Time
	}

	rows, err := r.pool.Query(ctx, `SELECT id, liquidation_id, date, description, category, amount,
	receipt_number, created_at
FROM liquidation_items WHERE liquidation_id = $1 ORDER BY date, id`, id)
	if err != nil {
		return Liquidation{}, nil, err
	}
	defer rows.Close()

	var items []LiquidationItem
	for rows.Next() {
		var item LiquidationItem
		if err := rows.Scan(&item.ID, &item.LiquidationID, &item.Date, &item.Description,
			&item.Category, &item.Amount, &item.ReceiptNumber, &item.CreatedAt); err != nil {
			return Liquidation{}, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Liquidation{}, nil, err
	}
	return liq, items, nil
}

// GetDebitMemo returns a debit memo by ID.
func (r *Repository) GetDebitMemo(ctx context.Context, id int64) (DebitMemo, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, number, memo_date, vendor_name, vendor_address,
	reference_invoice, reason, amount, status, prepared_by, approved_by, approved_date,
	remarks, created_at, updated_at
FROM debit_memos WHERE id = $1`, id)

	var memo DebitMemo
	var approvedBy pgtype.Int8
	var approvedDate pgtype.Timestamptz
	err := row.Scan(&memo.ID, &memo.Number, &memo.MemoDate, &memo.VendorName, &memo.VendorAddress,
		&memo.ReferenceInvoice, &memo.Reason, &memo.Amount, &memo.Status, &memo.PreparedBy,
		&approvedBy, &approvedDate, &memo.Remarks, &memo.CreatedAt, &memo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DebitMemo{}, ErrNotFound
		}
		return DebitMemo{}, err
	}
	if approvedBy.Valid {
		memo.ApprovedBy = approvedBy.Int64
	}
	if approvedDate.Valid {
		memo.ApprovedDate = approvedDate.Time
	}
	return memo, nil
}

// GetCheckVoucher returns a check voucher by ID.
func (r *Repository) GetCheckVoucher(ctx context.Context, id int64) (CheckVoucher, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, number, voucher_date, payee_name, payee_address,
	check_number, check_date, bank_name, amount, amount_in_words, particulars, invoice_number,
	project_name, status, prepared_by, approved_by, approved_date, remarks, created_at, updated_at
FROM check_vouchers WHERE id = $1`, id)

	var voucher CheckVoucher
	var checkDate pgtype.Date
	var approvedBy pgtype.Int8
	var approvedDate pgtype.Timestamptz
	err := row.Scan(&voucher.ID, &voucher.Number, &voucher.VoucherDate, &voucher.PayeeName,
		&voucher.PayeeAddress, &voucher.CheckNumber, &checkDate, &voucher.BankName, &voucher.Amount,
		&voucher.AmountInWords, &voucher.Particulars, &voucher.InvoiceNumber, &voucher.ProjectName,
		&voucher.Status, &voucher.PreparedBy, &approvedBy, &approvedDate, &voucher.Remarks,
		&voucher.CreatedAt, &voucher.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckVoucher{}, ErrNotFound
		}
		return CheckVoucher{}, err
	}
	if checkDate.Valid {
		voucher.CheckDate = checkDate.Time
	}
	if approvedBy.Valid {
		voucher.ApprovedBy = approvedBy.Int64
	}
	if approvedDate.Valid {
		voucher.ApprovedDate = approvedDate.Time
	}
	return voucher, nil
}

// GetDisbursement returns a disbursement by ID.
func (r *Repository) GetDisbursement(ctx context.Context, id int64) (Disbursement, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, number, disbursement_date, recipient_name, recipient_type,
	amount, payment_method, reference_number, purpose, category, project_name, check_voucher_id,
	status, processed_by, remarks, created_at, updated_at
FROM disbursements WHERE id = $1`, id)

	var disb Disbursement
	var voucherID pgtype.Int8
	err := row.Scan(&disb.ID, &disb.Number, &disb.DisbursementDate, &disb.RecipientName,
		&disb.RecipientType, &disb.Amount, &disb.PaymentMethod, &disb.ReferenceNumber, &disb.Purpose,
		&disb.Category, &disb.ProjectName, &voucherID, &disb.Status, &disb.ProcessedBy, &disb.Remarks,
		&disb.CreatedAt, &disb.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Disbursement{}, ErrNotFound
		}
		return Disbursement{}, err
	}
	if voucherID.Valid {
		disb.CheckVoucherID = voucherID.Int64
	}
	return disb, nil
}

// ListLiquidations returns one page of liquidations, optionally filtered by status.
func (r *Repository) ListLiquidations(ctx context.Context, limit, offset int, status string) ([]Liquidation, int, error) {
	countSQL := `SELECT COUNT(*) FROM liquidations WHERE 1=1`
	dataSQL := `SELECT id, number, employee_id, project_name, cash_advance_amount, cash_advance_date,
	total_expenses, liquidation_date, status, approved_by, approved_date, remarks, created_at, updated_at
FROM liquidations WHERE 1=1`
	args := []any{}
	if status != "" {
		countSQL += ` AND status = $1`
		dataSQL += ` AND status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Liquidation
	for rows.Next() {
		var liq Liquidation
		var approvedBy pgtype.Int8
		var approvedDate pgtype.Timestamptz
		if err := rows.Scan(&liq.ID, &liq.Number, &liq.EmployeeID, &liq.ProjectName,
			&liq.CashAdvanceAmount, &liq.CashAdvanceDate, &liq.TotalExpenses, &liq.LiquidationDate,
			&liq.Status, &approvedBy, &approvedDate, &liq.Remarks, &liq.CreatedAt, &liq.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if approvedBy.Valid {
			liq.ApprovedBy = approvedBy.Int64
		}
		if approvedDate.Valid {
			liq.ApprovedDate = approvedDate.Time
		}
		result = append(result, liq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListDebitMemos returns one page of debit memos, optionally filtered by status.
func (r *Repository) ListDebitMemos(ctx context.Context, limit, offset int, status string) ([]DebitMemo, int, error) {
	countSQL := `SELECT COUNT(*) FROM debit_memos WHERE 1=1`
	dataSQL := `SELECT id, number, memo_date, vendor_name, vendor_address, reference_invoice, reason,
	amount, status, prepared_by, approved_by, approved_date, remarks, created_at, updated_at
FROM debit_memos WHERE 1=1`
	args := []any{}
	if status != "" {
		countSQL += ` AND status = $1`
		dataSQL += ` AND status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []DebitMemo
	for rows.Next() {
		var memo DebitMemo
		var approvedBy pgtype.Int8
		var approvedDate pgtype.Timestamptz
		if err := rows.Scan(&memo.ID, &memo.Number, &memo.MemoDate, &memo.VendorName,
			&memo.VendorAddress, &memo.ReferenceInvoice, &memo.Reason, &memo.Amount, &memo.Status,
			&memo.PreparedBy, &approvedBy, &approvedDate, &memo.Remarks, &memo.CreatedAt, &memo.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if approvedBy.Valid {
			memo.ApprovedBy = approvedBy.Int64
		}
		if approvedDate.Valid {
			memo.ApprovedDate = approvedDate.Time
		}
		result = append(result, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListCheckVouchers returns one page of check vouchers, optionally filtered by status.
func (r *Repository) ListCheckVouchers(ctx context.Context, limit, offset int, status string) ([]CheckVoucher, int, error) {
	countSQL := `SELECT COUNT(*) FROM check_vouchers WHERE 1=1`
	dataSQL := `SELECT id, number, voucher_date, payee_name, payee_address, check_number, check_date,
	bank_name, amount, amount_in_words, particulars, invoice_number, project_name, status,
	prepared_by, approved_by, approved_date, remarks, created_at, updated_at
FROM check_vouchers WHERE 1=1`
	args := []any{}
	if status != "" {
		countSQL += ` AND status = $1`
		dataSQL += ` AND status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []CheckVoucher
	for rows.Next() {
		var voucher CheckVoucher
		var checkDate pgtype.Date
		var approvedBy pgtype.Int8
		var approvedDate pgtype.Timestamptz
		if err := rows.Scan(&voucher.ID, &voucher.Number, &voucher.VoucherDate, &voucher.PayeeName,
			&voucher.PayeeAddress, &voucher.CheckNumber, &checkDate, &voucher.BankName, &voucher.Amount,
			&voucher.AmountInWords, &voucher.Particulars, &voucher.InvoiceNumber, &voucher.ProjectName,
			&voucher.Status, &voucher.PreparedBy, &approvedBy, &approvedDate, &voucher.Remarks,
			&voucher.CreatedAt, &voucher.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if checkDate.Valid {
			voucher.CheckDate = checkDate.Time
		}
		if approvedBy.Valid {
			voucher.ApprovedBy = approvedBy.Int64
		}
		if approvedDate.Valid {
			voucher.ApprovedDate = approvedDate.Time
		}
		result = append(result, voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListDisbursements returns one page of disbursements, optionally filtered by status.
// Ordered by disbursement date, most recent first.
func (r *Repository) ListDisbursements(ctx context.Context, limit, offset int, status string) ([]Disbursement, int, error) {
	countSQL := `SELECT COUNT(*) FROM disbursements WHERE 1=1`
	dataSQL := `SELECT id, number, disbursement_date, recipient_name, recipient_type, amount,
	payment_method, reference_number, purpose, category, project_name, check_voucher_id, status,
	processed_by, remarks, created_at, updated_at
FROM disbursements WHERE 1=1`
	args := []any{}
	if status != "" {
		countSQL += ` AND status = $1`
		dataSQL += ` AND status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY disbursement_date DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Disbursement
	for rows.Next() {
		var disb Disbursement
		var voucherID pgtype.Int8
		if err := rows.Scan(&disb.ID, &disb.Number, &disb.DisbursementDate, &disb.RecipientName,
			&disb.RecipientType, &disb.Amount, &disb.PaymentMethod, &disb.ReferenceNumber,
			&disb.Purpose, &disb.Category, &disb.ProjectName, &voucherID, &disb.Status,
			&disb.ProcessedBy, &disb.Remarks, &disb.CreatedAt, &disb.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if voucherID.Valid {
			disb.CheckVoucherID = voucherID.Int64
		}
		result = append(result, disb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// Transactional writes

func (tx *txRepo) NextNumber(ctx context.Context, prefix string, day time.Time) (string, error) {
	seq, err := tx.sequencer.Next(ctx, tx.tx, prefix, day)
	if err != nil {
		return "", err
	}
	return shared.FormatNumber(prefix, day, seq), nil
}

func (tx *txRepo) CreateLiquidation(ctx context.Context, liq Liquidation) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO liquidations
	(number, employee_id, project_name, cash_advance_amount, cash_advance_date, total_expenses,
	 liquidation_date, status, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING id`,
		liq.Number, liq.EmployeeID, liq.ProjectName, liq.CashAdvanceAmount, liq.CashAdvanceDate,
		liq.TotalExpenses, liq.LiquidationDate, string(liq.Status), liq.Remarks).Scan(&id)
	return id, err
}

func (tx *txRepo) InsertLiquidationItem(ctx context.Context, item LiquidationItem) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO liquidation_items
	(liquidation_id, date, description, category, amount, receipt_number, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		item.LiquidationID, item.Date, item.Description, item.Category, item.Amount, item.ReceiptNumber)
	return err
}

func (tx *txRepo) DeleteLiquidationItems(ctx context.Context, liquidationID int64) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM liquidation_items WHERE liquidation_id = $1`, liquidationID)
	return err
}

func (tx *txRepo) SetLiquidationTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := tx.tx.Exec(ctx, `UPDATE liquidations SET total_expenses = $1, updated_at = NOW() WHERE id = $2`, total, id)
	return err
}

func (tx *txRepo) UpdateLiquidationStatus(ctx context.Context, id int64, status LiquidationStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE liquidations SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	return err
}

func (tx *txRepo) SetLiquidationDecision(ctx context.Context, id int64, status LiquidationStatus, actorID int64, at time.Time, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE liquidations
SET status = $1, approved_by = $2, approved_date = $3, remarks = $4, updated_at = NOW()
WHERE id = $5`, string(status), actorID, at, remarks, id)
	return err
}

func (tx *txRepo) CreateDebitMemo(ctx context.Context, memo DebitMemo) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO debit_memos
	(number, memo_date, vendor_name, vendor_address, reference_invoice, reason, amount, status,
	 prepared_by, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING id`,
		memo.Number, memo.MemoDate, memo.VendorName, memo.VendorAddress, memo.ReferenceInvoice,
		memo.Reason, memo.Amount, string(memo.Status), memo.PreparedBy, memo.Remarks).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateDebitMemoStatus(ctx context.Context, id int64, status DebitMemoStatus, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE debit_memos
SET status = $1, remarks = CASE WHEN $2 <> '' THEN $2 ELSE remarks END, updated_at = NOW()
WHERE id = $3`, string(status), remarks, id)
	return err
}

func (tx *txRepo) SetDebitMemoDecision(ctx context.Context, id int64, status DebitMemoStatus, actorID int64, at time.Time, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE debit_memos
SET status = $1, approved_by = $2, approved_date = $3, remarks = $4, updated_at = NOW()
WHERE id = $5`, string(status), actorID, at, remarks, id)
	return err
}

func (tx *txRepo) CreateCheckVoucher(ctx context.Context, voucher CheckVoucher) (int64, error) {
	var checkDate pgtype.Date
	if !voucher.CheckDate.IsZero() {
		checkDate = pgtype.Date{Time: voucher.CheckDate, Valid: true}
	}
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO check_vouchers
	(number, voucher_date, payee_name, payee_address, check_number, check_date, bank_name, amount,
	 amount_in_words, particulars, invoice_number, project_name, status, prepared_by, remarks,
	 created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
RETURNING id`,
		voucher.Number, voucher.VoucherDate, voucher.PayeeName, voucher.PayeeAddress,
		voucher.CheckNumber, checkDate, voucher.BankName, voucher.Amount, voucher.AmountInWords,
		voucher.Particulars, voucher.InvoiceNumber, voucher.ProjectName, string(voucher.Status),
		voucher.PreparedBy, voucher.Remarks).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateCheckVoucherStatus(ctx context.Context, id int64, status CheckVoucherStatus, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE check_vouchers
SET status = $1, remarks = CASE WHEN $2 <> '' THEN $2 ELSE remarks END, updated_at = NOW()
WHERE id = $3`, string(status), remarks, id)
	return err
}

func (tx *txRepo) SetCheckVoucherDecision(ctx context.Context, id int64, status CheckVoucherStatus, actorID int64, at time.Time, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE check_vouchers
SET status = $1, approved_by = $2, approved_date = $3, remarks = $4, updated_at = NOW()
WHERE id = $5`, string(status), actorID, at, remarks, id)
	return err
}

func (tx *txRepo) CreateDisbursement(ctx context.Context, disb Disbursement) (int64, error) {
	var voucherID pgtype.Int8
	if disb.CheckVoucherID != 0 {
		voucherID = pgtype.Int8{Int64: disb.CheckVoucherID, Valid: true}
	}
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO disbursements
	(number, disbursement_date, recipient_name, recipient_type, amount, payment_method,
	 reference_number, purpose, category, project_name, check_voucher_id, status, processed_by,
	 remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
RETURNING id`,
		disb.Number, disb.DisbursementDate, disb.RecipientName, disb.RecipientType, disb.Amount,
		string(disb.PaymentMethod), disb.ReferenceNumber, disb.Purpose, disb.Category,
		disb.ProjectName, voucherID, string(disb.Status), disb.ProcessedBy, disb.Remarks).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateDisbursementStatus(ctx context.Context, id int64, status DisbursementStatus, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE disbursements
SET status = $1, remarks = CASE WHEN $2 <> '' THEN $2 ELSE remarks END, updated_at = NOW()
WHERE id = $3`, string(status), remarks, id)
	return err
}
