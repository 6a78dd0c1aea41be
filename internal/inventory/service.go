package inventory

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
	GetMaterialRequest(ctx context.Context, id int64) (MaterialRequest, []MaterialRequestItem, error)
	ListMaterialRequests(ctx context.Context, limit, offset int, status, purchaseStatus string) ([]MaterialRequest, int, error)
	GetInventoryItem(ctx context.Context, id int64) (InventoryItem, error)
	ListInventoryItems(ctx context.Context, limit, offset int, search, category string) ([]InventoryItem, int, error)
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

// Service implements material request workflows and the masterlist.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalPort
	audit     AuditPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs an inventory service.
func NewService(repo RepositoryPort, approvals ApprovalPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) recordApproval(ctx context.Context, docID, actorID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil || actorID == 0 {
		return
	}
	ref := shared.DocumentRef("material_request", docID)
	// Requests enter review the moment they are created, so the first
	// recorded action backfills the submit row to keep the history ordered.
	if action != shared.ApprovalSubmit {
		if err := s.approvals.EnsureSubmit(ctx, "material_request", ref, actorID, ""); err != nil {
			s.logger.Warn("ensure submit approval", slog.Int64("id", docID), slog.Any("error", err))
		}
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  "material_request",
		RefID:   ref,
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
	if err != nil {
		s.logger.Warn("record approval", slog.Int64("id", docID), slog.Any("error", err))
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
// MATERIAL REQUESTS
// ============================================================================

// RequestItemInput is one material line in a create or replace request.
type RequestItemInput struct {
	MaterialName       string
	Description        string
	Specification      string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitCost  decimal.Decimal
	SupplierPreference string
	Notes              string
}

// CreateRequestInput carries fields for a new material request.
type CreateRequestInput struct {
	ProjectName     string
	ProjectLocation string
	SiteSupervisor  string
	DateNeeded      time.Time
	Priority        Priority
	Purpose         string
	Items           []RequestItemInput
	Remarks         string
}

func validateRequestItems(items []RequestItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one material line required", ErrValidation)
	}
	for i, item := range items {
		if strings.TrimSpace(item.MaterialName) == "" {
			return fmt.Errorf("%w: item %d material name required", ErrValidation, i+1)
		}
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrValidation, i+1)
		}
		if !ValidUnit(item.Unit) {
			return fmt.Errorf("%w: item %d unknown unit %q", ErrValidation, i+1, item.Unit)
		}
		if item.EstimatedUnitCost.IsNegative() {
			return fmt.Errorf("%w: item %d estimated unit cost cannot be negative", ErrValidation, i+1)
		}
	}
	return nil
}

// CreateMaterialRequest creates a pending request with its material lines.
func (s *Service) CreateMaterialRequest(ctx context.Context, in CreateRequestInput, actorID int64) (*MaterialRequest, error) {
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !ValidPriority(in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}
	if err := validateRequestItems(in.Items); err != nil {
		return nil, err
	}
	if in.DateNeeded.IsZero() {
		return nil, fmt.Errorf("%w: date needed required", ErrValidation)
	}

	req := MaterialRequest{
		ProjectName:     in.ProjectName,
		ProjectLocation: in.ProjectLocation,
		SiteSupervisor:  in.SiteSupervisor,
		RequestedBy:     actorID,
		RequestDate:     s.now(),
		DateNeeded:      in.DateNeeded,
		Priority:        in.Priority,
		Purpose:         in.Purpose,
		Status:          RequestPending,
		PurchaseStatus:  PurchasePending,
		Remarks:         in.Remarks,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, shared.PrefixMaterialRequest, s.now())
		if err != nil {
			return err
		}
		req.Number = number
		req.ID, err = tx.CreateMaterialRequest(ctx, req)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			item := MaterialRequestItem{
				MaterialRequestID:  req.ID,
				MaterialName:       it.MaterialName,
				Description:        it.Description,
				Specification:      it.Specification,
				Quantity:           it.Quantity,
				Unit:               it.Unit,
				EstimatedUnitCost:  it.EstimatedUnitCost,
				SupplierPreference: it.SupplierPreference,
				Notes:              it.Notes,
			}
			if err := tx.InsertRequestItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create material request: %w", err)
	}

	s.recordAudit(ctx, actorID, "create", "material_request", req.ID, map[string]any{"number": req.Number})
	return &req, nil
}

// ReplaceRequestItems swaps the material lines of a pending request. Once a
// request leaves pending its lines are locked.
func (s *Service) ReplaceRequestItems(ctx context.Context, id int64, inputs []RequestItemInput, actorID int64) (*MaterialRequest, []MaterialRequestItem, error) {
	req, _, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != RequestPending {
		return nil, nil, fmt.Errorf("%w: request %s is %s, items are locked", ErrInvalidState, req.Number, req.Status)
	}
	if err := validateRequestItems(inputs); err != nil {
		return nil, nil, err
	}

	items := make([]MaterialRequestItem, 0, len(inputs))
	for _, it := range inputs {
		items = append(items, MaterialRequestItem{
			MaterialRequestID:  id,
			MaterialName:       it.MaterialName,
			Description:        it.Description,
			Specification:      it.Specification,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			EstimatedUnitCost:  it.EstimatedUnitCost,
			SupplierPreference: it.SupplierPreference,
			Notes:              it.Notes,
		})
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteRequestItems(ctx, id); err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.InsertRequestItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("replace request items: %w", err)
	}

	s.recordAudit(ctx, actorID, "replace_items", "material_request", id, map[string]any{"items": len(items)})
	return &req, items, nil
}

// ApproveMaterialRequest approves a pending request. A repeat approve is a
// workflow violation, not a no-op.
func (s *Service) ApproveMaterialRequest(ctx context.Context, id, actorID int64) (*MaterialRequest, error) {
	req, _, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(RequestApproved) {
		return nil, fmt.Errorf("%w: cannot approve request %s from %s", ErrInvalidState, req.Number, req.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetRequestDecision(ctx, id, RequestApproved, actorID, at, "")
	})
	if err != nil {
		return nil, fmt.Errorf("approve material request: %w", err)
	}
	req.Status = RequestApproved
	req.ApprovedBy = actorID
	req.ApprovedDate = at
	s.recordApproval(ctx, id, actorID, shared.ApprovalApprove, "")
	s.recordAudit(ctx, actorID, "approve", "material_request", id, nil)
	return &req, nil
}

// RejectMaterialRequest rejects a pending request. A reason is mandatory.
func (s *Service) RejectMaterialRequest(ctx context.Context, id, actorID int64, reason string) (*MaterialRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason required", ErrValidation)
	}
	req, _, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(RequestRejected) {
		return nil, fmt.Errorf("%w: cannot reject request %s from %s", ErrInvalidState, req.Number, req.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetRequestDecision(ctx, id, RequestRejected, actorID, at, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("reject material request: %w", err)
	}
	req.Status = RequestRejected
	req.ApprovedBy = actorID
	req.ApprovedDate = at
	req.Remarks = reason
	s.recordApproval(ctx, id, actorID, shared.ApprovalReject, reason)
	s.recordAudit(ctx, actorID, "reject", "material_request", id, map[string]any{"reason": reason})
	return &req, nil
}

// ApprovePurchase clears a request for purchasing. Runs on the purchase
// workflow, independent of the request approval.
func (s *Service) ApprovePurchase(ctx context.Context, id, actorID int64) (*MaterialRequest, error) {
	req, _, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.PurchaseStatus.CanTransition(PurchaseApproved) {
		return nil, fmt.Errorf("%w: cannot approve purchase for %s, purchase status is %s", ErrInvalidState, req.Number, req.PurchaseStatus)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetPurchaseDecision(ctx, id, PurchaseApproved, actorID, at, "")
	})
	if err != nil {
		return nil, fmt.Errorf("approve purchase: %w", err)
	}
	req.PurchaseStatus = PurchaseApproved
	req.PurchaseApprovedBy = actorID
	req.PurchaseApprovedDate = at
	s.recordApproval(ctx, id, actorID, shared.ApprovalApprove, "purchase")
	s.recordAudit(ctx, actorID, "approve_purchase", "material_request", id, nil)
	return &req, nil
}

// RejectPurchase blocks a request from purchasing. A reason is mandatory.
func (s *Service) RejectPurchase(ctx context.Context, id, actorID int64, reason string) (*MaterialRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason required", ErrValidation)
	}
	req, _, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.PurchaseStatus.CanTransition(PurchaseRejected) {
		return nil, fmt.Errorf("%w: cannot reject purchase for %s, purchase status is %s", ErrInvalidState, req.Number, req.PurchaseStatus)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetPurchaseDecision(ctx, id, PurchaseRejected, actorID, at, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("reject purchase: %w", err)
	}
	req.PurchaseStatus = PurchaseRejected
	req.PurchaseApprovedBy = actorID
	req.PurchaseApprovedDate = at
	req.Remarks = reason
	s.recordApproval(ctx, id, actorID, shared.ApprovalReject, "purchase: "+reason)
	s.recordAudit(ctx, actorID, "reject_purchase", "material_request", id, map[string]any{"reason": reason})
	return &req, nil
}

// GetMaterialRequest returns a request, its lines and the estimated total.
func (s *Service) GetMaterialRequest(ctx context.Context, id int64) (*MaterialRequest, []MaterialRequestItem, decimal.Decimal, error) {
	req, items, err := s.repo.GetMaterialRequest(ctx, id)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}
	return &req, items, TotalEstimatedCost(items), nil
}

// ListMaterialRequests returns one page of requests.
func (s *Service) ListMaterialRequests(ctx context.Context, page int, status, purchaseStatus string) ([]MaterialRequest, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListMaterialRequests(ctx, p.PerPage, p.Offset(), status, purchaseStatus)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list material requests: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ============================================================================
// INVENTORY MASTERLIST
// ============================================================================

// ItemInput carries fields for a masterlist entry.
type ItemInput struct {
	ItemCode       string
	Name           string
	Description    string
	Category       string
	Unit           string
	QuantityOnHand decimal.Decimal
	UnitCost       decimal.Decimal
	ReorderLevel   decimal.Decimal
	Location       string
	Supplier       string
	Active         bool
}

func validateItemInput(in ItemInput) error {
	if strings.TrimSpace(in.ItemCode) == "" {
		return fmt.Errorf("%w: item code required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if !ValidUnit(in.Unit) {
		return fmt.Errorf("%w: unknown unit %q", ErrValidation, in.Unit)
	}
	if in.QuantityOnHand.IsNegative() {
		return fmt.Errorf("%w: quantity on hand cannot be negative", ErrValidation)
	}
	if in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost cannot be negative", ErrValidation)
	}
	return nil
}

// CreateInventoryItem adds a masterlist entry. Item codes are unique, a
// collision surfaces as a duplicate error.
func (s *Service) CreateInventoryItem(ctx context.Context, in ItemInput, actorID int64) (*InventoryItem, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}
	item := InventoryItem{
		ItemCode:       strings.TrimSpace(in.ItemCode),
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		Unit:           in.Unit,
		QuantityOnHand: in.QuantityOnHand,
		UnitCost:       in.UnitCost,
		ReorderLevel:   in.ReorderLevel,
		Location:       in.Location,
		Supplier:       in.Supplier,
		Active:         in.Active,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		item.ID, err = tx.CreateInventoryItem(ctx, item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	s.recordAudit(ctx, actorID, "create", "inventory_item", item.ID, map[string]any{"item_code": item.ItemCode})
	return &item, nil
}

// UpdateInventoryItem replaces the mutable fields of a masterlist entry. The
// item code never changes after creation.
func (s *Service) UpdateInventoryItem(ctx context.Context, id int64, in ItemInput, actorID int64) (*InventoryItem, error) {
	existing, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ItemCode = existing.ItemCode
	if err := validateItemInput(in); err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Category = in.Category
	existing.Unit = in.Unit
	existing.QuantityOnHand = in.QuantityOnHand
	existing.UnitCost = in.UnitCost
	existing.ReorderLevel = in.ReorderLevel
	existing.Location = in.Location
	existing.Supplier = in.Supplier
	existing.Active = in.Active

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateInventoryItem(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	s.recordAudit(ctx, actorID, "update", "inventory_item", id, nil)
	return &existing, nil
}

// GetInventoryItem returns a masterlist entry by ID.
func (s *Service) GetInventoryItem(ctx context.Context, id int64) (*InventoryItem, error) {
	item, err := s.repo.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListInventoryItems returns one page of the masterlist.
func (s *Service) ListInventoryItems(ctx context.Context, page int, search, category string) ([]InventoryItem, shared.Pagination, error) {
	p := shared.NewPagination(page, shared.DefaultPageSize, 0)
	rows, total, err := s.repo.ListInventoryItems(ctx, p.PerPage, p.Offset(), search, category)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list inventory items: %w", err)
	}
	return rows, shared.NewPagination(p.Page, p.PerPage, total), nil
}
