package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/structura-erp/structura-erp/internal/shared"
)

// Material request lifecycle statuses.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestOrdered  RequestStatus = "ordered"
)

// Purchase clearance statuses, tracked separately from the request workflow.
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseApproved PurchaseStatus = "approved_for_purchase"
	PurchaseRejected PurchaseStatus = "rejected"
)

// Priority of a material request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Units of measure accepted on request items and masterlist entries.
var validUnits = map[string]bool{
	"pcs":           true,
	"bags":          true,
	"cubic_meters":  true,
	"square_meters": true,
	"linear_meters": true,
	"tons":          true,
	"liters":        true,
	"sets":          true,
	"boxes":         true,
	"rolls":         true,
}

// ValidUnit reports whether unit is a known unit of measure.
func ValidUnit(unit string) bool {
	return validUnits[unit]
}

// RequestOrdered is declared for imported data but has no inbound
// transition; nothing moves a request there through the API.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending: {RequestApproved, RequestRejected},
}

var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchasePending: {PurchaseApproved, PurchaseRejected},
}

// CanTransition reports whether the request workflow allows from -> to.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransition reports whether the purchase workflow allows from -> to.
func (s PurchaseStatus) CanTransition(to PurchaseStatus) bool {
	for _, next := range purchaseTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// MaterialRequest asks for site materials. The request approval and the
// purchase clearance run as two independent workflows on the same document.
type MaterialRequest struct {
	ID                    int64
	Number                string
	ProjectName           string
	ProjectLocation       string
	SiteSupervisor        string
	RequestedBy           int64
	RequestDate           time.Time
	DateNeeded            time.Time
	Priority              Priority
	Purpose               string
	Status                RequestStatus
	PurchaseStatus        PurchaseStatus
	ApprovedBy            int64
	ApprovedDate          time.Time
	PurchaseApprovedBy    int64
	PurchaseApprovedDate  time.Time
	Remarks               string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// MaterialRequestItem is one material line under a request.
type MaterialRequestItem struct {
	ID                 int64
	MaterialRequestID  int64
	MaterialName       string
	Description        string
	Specification      string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitCost  decimal.Decimal
	SupplierPreference string
	Notes              string
	CreatedAt          time.Time
}

// EstimatedCost returns quantity times estimated unit cost for the line.
func (i MaterialRequestItem) EstimatedCost() decimal.Decimal {
	return i.Quantity.Mul(i.EstimatedUnitCost).Round(2)
}

// TotalEstimatedCost sums the estimated cost across items. Derived on read,
// never stored.
func TotalEstimatedCost(items []MaterialRequestItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EstimatedCost())
	}
	return total
}

// InventoryItem is a masterlist entry. ItemCode is unique across the list.
type InventoryItem struct {
	ID             int64
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
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalValue returns quantity on hand times unit cost. Derived on read.
func (i InventoryItem) TotalValue() decimal.Decimal {
	return i.QuantityOnHand.Mul(i.UnitCost).Round(2)
}

// BelowReorderLevel reports whether the stock dropped to the reorder level.
func (i InventoryItem) BelowReorderLevel() bool {
	return i.QuantityOnHand.LessThanOrEqual(i.ReorderLevel)
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("inventory: %w", shared.ErrNotFound)
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = fmt.Errorf("inventory: %w", shared.ErrInvalidState)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("inventory: %w", shared.ErrValidation)
	// ErrDuplicateCode indicates an item code collision.
	ErrDuplicateCode = fmt.Errorf("inventory: item code: %w", shared.ErrDuplicate)
)
