package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the read-only aggregation queries behind the dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Document tables the dashboard rolls up. Fixed set, table names never come
// from request input.
var documentTables = map[string]string{
	"liquidations":      "liquidations",
	"debit_memos":       "debit_memos",
	"check_vouchers":    "check_vouchers",
	"disbursements":     "disbursements",
	"material_requests": "material_requests",
}

// CountByStatus returns status -> count for one document module. An unknown
// module yields an empty map.
func (r *Repository) CountByStatus(ctx context.Context, module string) (map[string]int, error) {
	table, ok := documentTables[module]
	if !ok {
		return map[string]int{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM `+table+` GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// MonthTotals holds the money rollups for one month window.
type MonthTotals struct {
	LiquidationExpenses decimal.Decimal
	VoucherAmount       decimal.Decimal
	DisbursementAmount  decimal.Decimal
}

// SumMonth aggregates document amounts inside [from, to). Cancelled and
// rejected documents are excluded. Empty tables sum to zero, never error.
func (r *Repository) SumMonth(ctx context.Context, from, to time.Time) (MonthTotals, error) {
	var totals MonthTotals
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_expenses), 0)
FROM liquidations
WHERE liquidation_date >= $1 AND liquidation_date < $2 AND status <> 'rejected'`,
		from, to).Scan(&totals.LiquidationExpenses)
	if err != nil {
		return MonthTotals{}, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)
FROM check_vouchers
WHERE voucher_date >= $1 AND voucher_date < $2 AND status <> 'cancelled'`,
		from, to).Scan(&totals.VoucherAmount)
	if err != nil {
		return MonthTotals{}, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)
FROM disbursements
WHERE disbursement_date >= $1 AND disbursement_date < $2 AND status <> 'cancelled'`,
		from, to).Scan(&totals.DisbursementAmount)
	if err != nil {
		return MonthTotals{}, err
	}
	return totals, nil
}

// PendingApprovals counts documents waiting on a decision, per module.
func (r *Repository) PendingApprovals(ctx context.Context) (map[string]int, error) {
	pending := map[string]int{}
	queries := map[string]string{
		"liquidations":      `SELECT COUNT(*) FROM liquidations WHERE status = 'submitted'`,
		"check_vouchers":    `SELECT COUNT(*) FROM check_vouchers WHERE status = 'pending'`,
		"disbursements":     `SELECT COUNT(*) FROM disbursements WHERE status = 'pending'`,
		"material_requests": `SELECT COUNT(*) FROM material_requests WHERE status = 'pending'`,
	}
	for module, q := range queries {
		var n int
		if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
			return nil, err
		}
		pending[module] = n
	}
	return pending, nil
}

// InventoryValuation sums quantity on hand times unit cost over active items.
func (r *Repository) InventoryValuation(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity_on_hand * unit_cost), 0)
FROM inventory_items WHERE active`).Scan(&value)
	if err != nil {
		return decimal.Zero, err
	}
	return value, nil
}
