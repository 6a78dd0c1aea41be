package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

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
	CreateMaterialRequest(ctx context.Context, req MaterialRequest) (int64, error)
	InsertRequestItem(ctx context.Context, item MaterialRequestItem) error
	DeleteRequestItems(ctx context.Context, requestID int64) error
	SetRequestDecision(ctx context.Context, id int64, status RequestStatus, actorID int64, at time.Time, remarks string) error
	SetPurchaseDecision(ctx context.Context, id int64, status PurchaseStatus, actorID int64, at time.Time, remarks string) error
	CreateInventoryItem(ctx context.Context, item InventoryItem) (int64, error)
	UpdateInventoryItem(ctx context.Context, item InventoryItem) error
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

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}

const requestColumns = `id, number, project_name, project_location, site_supervisor, requested_by, request_date, date_needed, priority,
	purpose, status, purchase_status, approved_by, approved_date, purchase_approved_by,
	purchase_approved_date, remarks, created_at, updated_at`

func scanRequest(row pgx.Row) (MaterialRequest, error) {
	var req MaterialRequest
	var approvedBy, purchaseApprovedBy pgtype.Int8
	var approvedDate, purchaseApprovedDate pgtype.Timestamptz
	err := row.Scan(&req.ID, &req.Number, &req.ProjectName, &req.ProjectLocation, &req.SiteSupervisor, &req.RequestedBy, &req.RequestDate,
		&req.DateNeeded, &req.Priority, &req.Purpose, &req.Status, &req.PurchaseStatus,
		&approvedBy, &approvedDate, &purchaseApprovedBy, &purchaseApprovedDate, &req.Remarks,
		&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return MaterialRequest{}, err
	}
	if approvedBy.Valid {
		req.ApprovedBy = approvedBy.Int64
	}
	if approvedDate.Valid {
		req.ApprovedDate = approvedDate.Time
	}
	if purchaseApprovedBy.Valid {
		req.PurchaseApprovedBy = purchaseApprovedBy.Int64
	}
	if purchaseApprovedDate.Valid {
		req.PurchaseApprovedDate = purchaseApprovedDate.Time
	}
	return req, nil
}

// GetMaterialRequest returns a material request and its line items.
func (r *Repository) GetMaterialRequest(ctx context.Context, id int64) (MaterialRequest, []MaterialRequestItem, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM material_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MaterialRequest{}, nil, ErrNotFound
		}
		return MaterialRequest{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, material_request_id, material_name, description,
	specification, quantity, unit, estimated_unit_cost, supplier_preference, notes, created_at
FROM material_request_items WHERE material_request_id = $1 ORDER BY id`, id)
	if err != nil {
		return MaterialRequest{}, nil, err
	}
	defer rows.Close()

	var items []MaterialRequestItem
	for rows.Next() {
		var item MaterialRequestItem
		if err := rows.Scan(&item.ID, &item.MaterialRequestID, &item.MaterialName, &item.Description,
			&item.Specification, &item.Quantity, &item.Unit, &item.EstimatedUnitCost,
			&item.SupplierPreference, &item.Notes, &item.CreatedAt); err != nil {
			return MaterialRequest{}, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return MaterialRequest{}, nil, err
	}
	return req, items, nil
}

// ListMaterialRequests returns one page, optionally filtered by request
// status and purchase status. Urgent requests first, then newest.
func (r *Repository) ListMaterialRequests(ctx context.Context, limit, offset int, status, purchaseStatus string) ([]MaterialRequest, int, error) {
	countSQL := `SELECT COUNT(*) FROM material_requests WHERE 1=1`
	dataSQL := `SELECT ` + requestColumns + ` FROM material_requests WHERE 1=1`
	args := []any{}
	if status != "" {
		args = append(args, status)
		cond := ` AND status = $` + itoa(len(args))
		countSQL += cond
		dataSQL += cond
	}
	if purchaseStatus != "" {
		args = append(args, purchaseStatus)
		cond := ` AND purchase_status = $` + itoa(len(args))
		countSQL += cond
		dataSQL += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
	created_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []MaterialRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

const itemColumns = `id, item_code, name, description, category, unit, quantity_on_hand, unit_cost,
	reorder_level, location, supplier, active, created_at, updated_at`

func scanInventoryItem(row pgx.Row) (InventoryItem, error) {
	var item InventoryItem
	err := row.Scan(&item.ID, &item.ItemCode, &item.Name, &item.Description, &item.Category,
		&item.Unit, &item.QuantityOnHand, &item.UnitCost, &item.ReorderLevel, &item.Location,
		&item.Supplier, &item.Active, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

// GetInventoryItem returns a masterlist entry by ID.
func (r *Repository) GetInventoryItem(ctx context.Context, id int64) (InventoryItem, error) {
	item, err := scanInventoryItem(r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryItem{}, ErrNotFound
		}
		return InventoryItem{}, err
	}
	return item, nil
}

// ListInventoryItems returns one page of the masterlist. Search matches item
// code and name, category filters exactly.
func (r *Repository) ListInventoryItems(ctx context.Context, limit, offset int, search, category string) ([]InventoryItem, int, error) {
	countSQL := `SELECT COUNT(*) FROM inventory_items WHERE 1=1`
	dataSQL := `SELECT ` + itemColumns + ` FROM inventory_items WHERE 1=1`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		cond := ` AND (item_code ILIKE $` + itoa(len(args)) + ` OR name ILIKE $` + itoa(len(args)) + `)`
		countSQL += cond
		dataSQL += cond
	}
	if category != "" {
		args = append(args, category)
		cond := ` AND category = $` + itoa(len(args))
		countSQL += cond
		dataSQL += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += ` ORDER BY item_code LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, item)
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

func (tx *txRepo) CreateMaterialRequest(ctx context.Context, req MaterialRequest) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO material_requests
	(number, project_name, project_location, site_supervisor, requested_by, request_date, date_needed, priority, purpose, status,
	 purchase_status, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
RETURNING id`,
		req.Number, req.ProjectName, req.ProjectLocation, req.SiteSupervisor, req.RequestedBy, req.RequestDate, req.DateNeeded,
		string(req.Priority), req.Purpose, string(req.Status), string(req.PurchaseStatus),
		req.Remarks).Scan(&id)
	return id, err
}

func (tx *txRepo) InsertRequestItem(ctx context.Context, item MaterialRequestItem) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO material_request_items
	(material_request_id, material_name, description, specification, quantity, unit,
	 estimated_unit_cost, supplier_preference, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		item.MaterialRequestID, item.MaterialName, item.Description, item.Specification,
		item.Quantity, item.Unit, item.EstimatedUnitCost, item.SupplierPreference, item.Notes)
	return err
}

func (tx *txRepo) DeleteRequestItems(ctx context.Context, requestID int64) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM material_request_items WHERE material_request_id = $1`, requestID)
	return err
}

func (tx *txRepo) SetRequestDecision(ctx context.Context, id int64, status RequestStatus, actorID int64, at time.Time, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE material_requests
SET status = $1, approved_by = $2, approved_date = $3,
	remarks = CASE WHEN $4 <> '' THEN $4 ELSE remarks END, updated_at = NOW()
WHERE id = $5`, string(status), actorID, at, remarks, id)
	return err
}

func (tx *txRepo) SetPurchaseDecision(ctx context.Context, id int64, status PurchaseStatus, actorID int64, at time.Time, remarks string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE material_requests
SET purchase_status = $1, purchase_approved_by = $2, purchase_approved_date = $3,
	remarks = CASE WHEN $4 <> '' THEN $4 ELSE remarks END, updated_at = NOW()
WHERE id = $5`, string(status), actorID, at, remarks, id)
	return err
}

func (tx *txRepo) CreateInventoryItem(ctx context.Context, item InventoryItem) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO inventory_items
	(item_code, name, description, category, unit, quantity_on_hand, unit_cost, reorder_level,
	 location, supplier, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
RETURNING id`,
		item.ItemCode, item.Name, item.Description, item.Category, item.Unit, item.QuantityOnHand,
		item.UnitCost, item.ReorderLevel, item.Location, item.Supplier, item.Active).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateInventoryItem(ctx context.Context, item InventoryItem) error {
	_, err := tx.tx.Exec(ctx, `UPDATE inventory_items
SET name = $1, description = $2, category = $3, unit = $4, quantity_on_hand = $5, unit_cost = $6,
	reorder_level = $7, location = $8, supplier = $9, active = $10, updated_at = NOW()
WHERE id = $11`,
		item.Name, item.Description, item.Category, item.Unit, item.QuantityOnHand, item.UnitCost,
		item.ReorderLevel, item.Location, item.Supplier, item.Active, item.ID)
	return err
}
