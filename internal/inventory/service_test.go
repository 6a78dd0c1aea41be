package inventory

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/structura-erp/structura-erp/internal/shared"
)

type stubRepo struct {
	requests map[int64]*MaterialRequest
	items    map[int64][]MaterialRequestItem
	stock    map[int64]*InventoryItem
	nextID   int64
	seq      map[string]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		requests: map[int64]*MaterialRequest{},
		items:    map[int64][]MaterialRequestItem{},
		stock:    map[int64]*InventoryItem{},
		seq:      map[string]int64{},
	}
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &stubTx{repo: r})
}

func (r *stubRepo) GetMaterialRequest(_ context.Context, id int64) (MaterialRequest, []MaterialRequestItem, error) {
	req, ok := r.requests[id]
	if !ok {
		return MaterialRequest{}, nil, ErrNotFound
	}
	return *req, r.items[id], nil
}

func (r *stubRepo) ListMaterialRequests(_ context.Context, limit, offset int, status, purchaseStatus string) ([]MaterialRequest, int, error) {
	var all []MaterialRequest
	for _, req := range r.requests {
		if status != "" && string(req.Status) != status {
			continue
		}
		if purchaseStatus != "" && string(req.PurchaseStatus) != purchaseStatus {
			continue
		}
		all = append(all, *req)
	}
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *stubRepo) GetInventoryItem(_ context.Context, id int64) (InventoryItem, error) {
	item, ok := r.stock[id]
	if !ok {
		return InventoryItem{}, ErrNotFound
	}
	return *item, nil
}

func (r *stubRepo) ListInventoryItems(_ context.Context, limit, offset int, search, category string) ([]InventoryItem, int, error) {
	var all []InventoryItem
	for _, item := range r.stock {
		if search != "" && !strings.Contains(item.Name, search) && !strings.Contains(item.ItemCode, search) {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		all = append(all, *item)
	}
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

type stubTx struct {
	repo *stubRepo
}

func (tx *stubTx) NextNumber(_ context.Context, prefix string, day time.Time) (string, error) {
	key := prefix + day.Format("20060102")
	tx.repo.seq[key]++
	return shared.FormatNumber(prefix, day, tx.repo.seq[key]), nil
}

func (tx *stubTx) CreateMaterialRequest(_ context.Context, req MaterialRequest) (int64, error) {
	tx.repo.nextID++
	req.ID = tx.repo.nextID
	tx.repo.requests[req.ID] = &req
	return req.ID, nil
}

func (tx *stubTx) InsertRequestItem(_ context.Context, item MaterialRequestItem) error {
	tx.repo.items[item.MaterialRequestID] = append(tx.repo.items[item.MaterialRequestID], item)
	return nil
}

func (tx *stubTx) DeleteRequestItems(_ context.Context, requestID int64) error {
	delete(tx.repo.items, requestID)
	return nil
}

func (tx *stubTx) SetRequestDecision(_ context.Context, id int64, status RequestStatus, actorID int64, at time.Time, remarks string) error {
	req := tx.repo.requests[id]
	req.Status = status
	req.ApprovedBy = actorID
	req.ApprovedDate = at
	if remarks != "" {
		req.Remarks = remarks
	}
	return nil
}

func (tx *stubTx) SetPurchaseDecision(_ context.Context, id int64, status PurchaseStatus, actorID int64, at time.Time, remarks string) error {
	req := tx.repo.requests[id]
	req.PurchaseStatus = status
	req.PurchaseApprovedBy = actorID
	req.PurchaseApprovedDate = at
	if remarks != "" {
		req.Remarks = remarks
	}
	return nil
}

func (tx *stubTx) CreateInventoryItem(_ context.Context, item InventoryItem) (int64, error) {
	for _, existing := range tx.repo.stock {
		if existing.ItemCode == item.ItemCode {
			return 0, ErrDuplicateCode
		}
	}
	tx.repo.nextID++
	item.ID = tx.repo.nextID
	tx.repo.stock[item.ID] = &item
	return item.ID, nil
}

func (tx *stubTx) UpdateInventoryItem(_ context.Context, item InventoryItem) error {
	tx.repo.stock[item.ID] = &item
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

func newTestService() (*Service, *stubRepo) {
	repo := newStubRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, nil, nil, logger)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validRequestInput() CreateRequestInput {
	return CreateRequestInput{
		ProjectName:     "Bridge Retrofit",
		ProjectLocation: "Km 42, Daang Maharlika, Calamba",
		SiteSupervisor:  "Engr. R. Dizon",
		DateNeeded:      time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		Priority:        PriorityHigh,
		Purpose:         "Phase 2 concrete pour",
		Items: []RequestItemInput{
			{MaterialName: "Portland Cement", Quantity: dec("100"), Unit: "bags", EstimatedUnitCost: dec("250")},
			{MaterialName: "Washed Sand", Quantity: dec("5"), Unit: "cubic_meters", EstimatedUnitCost: dec("1200")},
		},
	}
}

func TestCreateMaterialRequest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)
	require.Equal(t, "REQ-20250314-001", req.Number)
	require.Equal(t, RequestPending, req.Status)
	require.Equal(t, PurchasePending, req.PurchaseStatus)
	require.Equal(t, int64(4), req.RequestedBy)
	require.Equal(t, "Km 42, Daang Maharlika, Calamba", req.ProjectLocation)
	require.Equal(t, "Engr. R. Dizon", req.SiteSupervisor)

	_, items, total, err := svc.GetMaterialRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.True(t, total.Equal(dec("31000")))
}

func TestCreateMaterialRequestValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := validRequestInput()
	in.Items = nil
	_, err := svc.CreateMaterialRequest(ctx, in, 4)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = validRequestInput()
	in.Items[0].Unit = "handful"
	_, err = svc.CreateMaterialRequest(ctx, in, 4)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = validRequestInput()
	in.Priority = "extreme"
	_, err = svc.CreateMaterialRequest(ctx, in, 4)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = validRequestInput()
	in.DateNeeded = time.Time{}
	_, err = svc.CreateMaterialRequest(ctx, in, 4)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestApprovalHistoryStartsWithSubmit(t *testing.T) {
	svc, _ := newTestService()
	approvals := &stubApprovals{}
	svc.approvals = approvals
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)

	// Requests never pass through an explicit submit, so the decision
	// backfills the submit row ahead of the approve entry.
	_, err = svc.ApproveMaterialRequest(ctx, req.ID, 9)
	require.NoError(t, err)
	require.Len(t, approvals.logs, 2)
	require.Equal(t, shared.ApprovalSubmit, approvals.logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestValidUnitMatchesMasterList(t *testing.T) {
	for _, unit := range []string{
		"pcs", "bags", "cubic_meters", "square_meters", "linear_meters",
		"tons", "liters", "sets", "boxes", "rolls",
	} {
		require.True(t, ValidUnit(unit), unit)
	}
	for _, unit := range []string{"bag", "cu_m", "kg", "handful", ""} {
		require.False(t, ValidUnit(unit), unit)
	}
}

func TestRequestApprovalWorkflow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)

	approved, err := svc.ApproveMaterialRequest(ctx, req.ID, 9)
	require.NoError(t, err)
	require.Equal(t, RequestApproved, approved.Status)
	require.Equal(t, int64(9), approved.ApprovedBy)
	require.False(t, approved.ApprovedDate.IsZero())

	// Approving twice is a workflow violation.
	_, err = svc.ApproveMaterialRequest(ctx, req.ID, 9)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRejectRequestRequiresReason(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)

	_, err = svc.RejectMaterialRequest(ctx, req.ID, 9, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	rejected, err := svc.RejectMaterialRequest(ctx, req.ID, 9, "no budget this month")
	require.NoError(t, err)
	require.Equal(t, RequestRejected, rejected.Status)
	require.Equal(t, "no budget this month", rejected.Remarks)
}

func TestPurchaseWorkflowIndependent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)

	// Purchase clearance can happen before the request approval.
	cleared, err := svc.ApprovePurchase(ctx, req.ID, 9)
	require.NoError(t, err)
	require.Equal(t, PurchaseApproved, cleared.PurchaseStatus)
	require.Equal(t, RequestPending, cleared.Status)
	require.Equal(t, int64(9), cleared.PurchaseApprovedBy)

	_, err = svc.ApprovePurchase(ctx, req.ID, 9)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestOrderedHasNoInboundTransition(t *testing.T) {
	require.False(t, RequestPending.CanTransition(RequestOrdered))
	require.False(t, RequestApproved.CanTransition(RequestOrdered))
	require.False(t, RequestOrdered.CanTransition(RequestApproved))
}

func TestReplaceRequestItemsLockedAfterApproval(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, err := svc.CreateMaterialRequest(ctx, validRequestInput(), 4)
	require.NoError(t, err)

	_, items, err := svc.ReplaceRequestItems(ctx, req.ID, []RequestItemInput{
		{MaterialName: "Gravel", Quantity: dec("3"), Unit: "cubic_meters", EstimatedUnitCost: dec("900")},
	}, 4)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.ApproveMaterialRequest(ctx, req.ID, 9)
	require.NoError(t, err)

	_, _, err = svc.ReplaceRequestItems(ctx, req.ID, []RequestItemInput{
		{MaterialName: "Gravel", Quantity: dec("4"), Unit: "cubic_meters", EstimatedUnitCost: dec("900")},
	}, 4)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCreateInventoryItemDuplicateCode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := ItemInput{
		ItemCode:       "CEM-001",
		Name:           "Portland Cement 40kg",
		Unit:           "bags",
		QuantityOnHand: dec("120"),
		UnitCost:       dec("250"),
		ReorderLevel:   dec("50"),
		Active:         true,
	}
	item, err := svc.CreateInventoryItem(ctx, in, 4)
	require.NoError(t, err)
	require.True(t, item.TotalValue().Equal(dec("30000")))

	_, err = svc.CreateInventoryItem(ctx, in, 4)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateInventoryItemKeepsCode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	item, err := svc.CreateInventoryItem(ctx, ItemInput{
		ItemCode: "REB-010", Name: "Rebar 10mm", Unit: "pcs",
		QuantityOnHand: dec("500"), UnitCost: dec("185"), Active: true,
	}, 4)
	require.NoError(t, err)

	updated, err := svc.UpdateInventoryItem(ctx, item.ID, ItemInput{
		ItemCode: "SOMETHING-ELSE", Name: "Rebar 10mm x 6m", Unit: "pcs",
		QuantityOnHand: dec("420"), UnitCost: dec("190"), Active: true,
	}, 4)
	require.NoError(t, err)
	require.Equal(t, "REB-010", updated.ItemCode)
	require.Equal(t, "Rebar 10mm x 6m", updated.Name)
	require.True(t, updated.QuantityOnHand.Equal(dec("420")))
}

func TestInventoryItemReorderFlag(t *testing.T) {
	item := InventoryItem{
		QuantityOnHand: dec("40"),
		ReorderLevel:   dec("50"),
	}
	require.True(t, item.BelowReorderLevel())

	item.QuantityOnHand = dec("51")
	require.False(t, item.BelowReorderLevel())
}
