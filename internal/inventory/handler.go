package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/structura-erp/structura-erp/internal/platform/httpx"
	"github.com/structura-erp/structura-erp/internal/shared"
)

// DocumentMetrics counts created documents. A nil implementation disables it.
type DocumentMetrics interface {
	DocumentCreated(module string)
}

// Handler exposes material requests and the masterlist over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  DocumentMetrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, metrics DocumentMetrics) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, metrics: metrics}
}

func (h *Handler) recordCreated(module string) {
	if h.metrics != nil {
		h.metrics.DocumentCreated(module)
	}
}

// MountRoutes registers inventory routes. Approval decisions require the
// approver role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/material-requests", func(r chi.Router) {
		r.Get("/", h.listRequests)
		r.Post("/", h.createRequest)
		r.Get("/{id}", h.getRequest)
		r.Put("/{id}/items", h.replaceRequestItems)
		r.Group(func(r chi.Router) {
			r.Use(shared.RequireRole(shared.RoleApprover))
			r.Post("/{id}/approve", h.approveRequest)
			r.Post("/{id}/reject", h.rejectRequest)
			r.Post("/{id}/approve-purchase", h.approvePurchase)
			r.Post("/{id}/reject-purchase", h.rejectPurchase)
		})
	})

	r.Route("/inventory-items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
	})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func pageParam(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func (h *Handler) fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
		}
	} else {
		fields["body"] = err.Error()
	}
	return fields
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func decodeReason(r *http.Request) string {
	var req reasonRequest
	_ = httpx.DecodeJSON(r, &req)
	return req.Reason
}

// Material requests

type requestItemRequest struct {
	MaterialName       string `json:"material_name" validate:"required"`
	Description        string `json:"description"`
	Specification      string `json:"specification"`
	Quantity           string `json:"quantity" validate:"required"`
	Unit               string `json:"unit" validate:"required"`
	EstimatedUnitCost  string `json:"estimated_unit_cost"`
	SupplierPreference string `json:"supplier_preference"`
	Notes              string `json:"notes"`
}

type createRequestRequest struct {
	ProjectName     string               `json:"project_name"`
	ProjectLocation string               `json:"project_location"`
	SiteSupervisor  string               `json:"site_supervisor"`
	DateNeeded      string               `json:"date_needed" validate:"required"`
	Priority        string               `json:"priority"`
	Purpose         string               `json:"purpose"`
	Items           []requestItemRequest `json:"items" validate:"required,dive"`
	Remarks         string               `json:"remarks"`
}

func decodeRequestItems(reqs []requestItemRequest) ([]RequestItemInput, map[string]string) {
	items := make([]RequestItemInput, 0, len(reqs))
	for i, it := range reqs {
		qty, err := parseDecimal(it.Quantity)
		if err != nil {
			return nil, map[string]string{"items": "item " + strconv.Itoa(i+1) + ": invalid quantity"}
		}
		cost, err := parseDecimal(it.EstimatedUnitCost)
		if err != nil {
			return nil, map[string]string{"items": "item " + strconv.Itoa(i+1) + ": invalid estimated cost"}
		}
		items = append(items, RequestItemInput{
			MaterialName:       it.MaterialName,
			Description:        it.Description,
			Specification:      it.Specification,
			Quantity:           qty,
			Unit:               it.Unit,
			EstimatedUnitCost:  cost,
			SupplierPreference: it.SupplierPreference,
			Notes:              it.Notes,
		})
	}
	return items, nil
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	dateNeeded, err := parseDate(req.DateNeeded)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"date_needed": "invalid date"})
		return
	}
	items, fieldErrs := decodeRequestItems(req.Items)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}

	created, err := h.service.CreateMaterialRequest(r.Context(), CreateRequestInput{
		ProjectName:     req.ProjectName,
		ProjectLocation: req.ProjectLocation,
		SiteSupervisor:  req.SiteSupervisor,
		DateNeeded:      dateNeeded,
		Priority:        Priority(req.Priority),
		Purpose:         req.Purpose,
		Items:           items,
		Remarks:         req.Remarks,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create material request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("material_requests")
	httpx.JSON(w, http.StatusCreated, h.requestResponse(*created, nil, decimal.Zero, false))
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	req, items, total, err := h.service.GetMaterialRequest(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.requestResponse(*req, items, total, true))
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListMaterialRequests(r.Context(), pageParam(r),
		r.URL.Query().Get("status"), r.URL.Query().Get("purchase_status"))
	if err != nil {
		h.logger.Error("list material requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, req := range rows {
		data = append(data, h.requestResponse(req, nil, decimal.Zero, false))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) replaceRequestItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	var req struct {
		Items []requestItemRequest `json:"items" validate:"required,dive"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	items, fieldErrs := decodeRequestItems(req.Items)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}
	updated, saved, err := h.service.ReplaceRequestItems(r.Context(), id, items, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.requestResponse(*updated, saved, TotalEstimatedCost(saved), true))
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	h.requestTransition(w, r, func(id, actor int64) (*MaterialRequest, error) {
		return h.service.ApproveMaterialRequest(r.Context(), id, actor)
	})
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.requestTransition(w, r, func(id, actor int64) (*MaterialRequest, error) {
		return h.service.RejectMaterialRequest(r.Context(), id, actor, reason)
	})
}

func (h *Handler) approvePurchase(w http.ResponseWriter, r *http.Request) {
	h.requestTransition(w, r, func(id, actor int64) (*MaterialRequest, error) {
		return h.service.ApprovePurchase(r.Context(), id, actor)
	})
}

func (h *Handler) rejectPurchase(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.requestTransition(w, r, func(id, actor int64) (*MaterialRequest, error) {
		return h.service.RejectPurchase(r.Context(), id, actor, reason)
	})
}

func (h *Handler) requestTransition(w http.ResponseWriter, r *http.Request, fn func(id, actor int64) (*MaterialRequest, error)) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	req, err := fn(id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.requestResponse(*req, nil, decimal.Zero, false))
}

func (h *Handler) requestResponse(req MaterialRequest, items []MaterialRequestItem, total decimal.Decimal, withItems bool) map[string]any {
	resp := map[string]any{
		"id":                      req.ID,
		"number":                  req.Number,
		"project_name":            req.ProjectName,
		"project_location":        req.ProjectLocation,
		"site_supervisor":         req.SiteSupervisor,
		"requested_by":            req.RequestedBy,
		"request_date":            shared.FormatDate(req.RequestDate),
		"date_needed":             shared.FormatDate(req.DateNeeded),
		"priority":                req.Priority,
		"purpose":                 req.Purpose,
		"status":                  req.Status,
		"status_display":          shared.StatusLabel(string(req.Status)),
		"purchase_status":         req.PurchaseStatus,
		"purchase_status_display": shared.StatusLabel(string(req.PurchaseStatus)),
		"remarks":                 req.Remarks,
		"created_at":              req.CreatedAt,
		"updated_at":              req.UpdatedAt,
	}
	if req.ApprovedBy != 0 {
		resp["approved_by"] = req.ApprovedBy
		resp["approved_date"] = shared.FormatDateTime(req.ApprovedDate)
	}
	if req.PurchaseApprovedBy != 0 {
		resp["purchase_approved_by"] = req.PurchaseApprovedBy
		resp["purchase_approved_date"] = shared.FormatDateTime(req.PurchaseApprovedDate)
	}
	if withItems {
		rows := make([]map[string]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, map[string]any{
				"id":                  item.ID,
				"material_name":       item.MaterialName,
				"description":         item.Description,
				"specification":       item.Specification,
				"quantity":            item.Quantity,
				"unit":                item.Unit,
				"estimated_unit_cost": item.EstimatedUnitCost,
				"supplier_preference": item.SupplierPreference,
				"notes":               item.Notes,
				"estimated_cost":      item.EstimatedCost(),
			})
		}
		resp["items"] = rows
		resp["total_estimated_cost"] = total
		resp["total_estimated_cost_display"] = shared.FormatAmount(total)
	}
	return resp
}

// Masterlist

type itemRequest struct {
	ItemCode       string `json:"item_code"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Unit           string `json:"unit" validate:"required"`
	QuantityOnHand string `json:"quantity_on_hand"`
	UnitCost       string `json:"unit_cost"`
	ReorderLevel   string `json:"reorder_level"`
	Location       string `json:"location"`
	Supplier       string `json:"supplier"`
	Active         *bool  `json:"active"`
}

func (h *Handler) decodeItemInput(req itemRequest) (ItemInput, map[string]string) {
	qty, err := parseDecimal(req.QuantityOnHand)
	if err != nil {
		return ItemInput{}, map[string]string{"quantity_on_hand": "invalid quantity"}
	}
	cost, err := parseDecimal(req.UnitCost)
	if err != nil {
		return ItemInput{}, map[string]string{"unit_cost": "invalid amount"}
	}
	reorder, err := parseDecimal(req.ReorderLevel)
	if err != nil {
		return ItemInput{}, map[string]string{"reorder_level": "invalid quantity"}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return ItemInput{
		ItemCode:       req.ItemCode,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Unit:           req.Unit,
		QuantityOnHand: qty,
		UnitCost:       cost,
		ReorderLevel:   reorder,
		Location:       req.Location,
		Supplier:       req.Supplier,
		Active:         active,
	}, nil
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	in, fieldErrs := h.decodeItemInput(req)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}
	item, err := h.service.CreateInventoryItem(r.Context(), in, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create inventory item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("inventory_items")
	httpx.JSON(w, http.StatusCreated, h.itemResponse(*item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	in, fieldErrs := h.decodeItemInput(req)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}
	item, err := h.service.UpdateInventoryItem(r.Context(), id, in, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.itemResponse(*item))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	item, err := h.service.GetInventoryItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.itemResponse(*item))
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListInventoryItems(r.Context(), pageParam(r),
		r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("list inventory items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, item := range rows {
		data = append(data, h.itemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) itemResponse(item InventoryItem) map[string]any {
	return map[string]any{
		"id":                  item.ID,
		"item_code":           item.ItemCode,
		"name":                item.Name,
		"description":         item.Description,
		"category":            item.Category,
		"unit":                item.Unit,
		"quantity_on_hand":    item.QuantityOnHand,
		"unit_cost":           item.UnitCost,
		"total_value":         item.TotalValue(),
		"total_value_display": shared.FormatAmount(item.TotalValue()),
		"reorder_level":       item.ReorderLevel,
		"below_reorder":       item.BelowReorderLevel(),
		"location":            item.Location,
		"supplier":            item.Supplier,
		"active":              item.Active,
		"created_at":          item.CreatedAt,
		"updated_at":          item.UpdatedAt,
	}
}
