package accounting

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

// Handler exposes accounting documents over JSON.
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

// MountRoutes registers accounting routes. Approval decisions require the
// approver role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/liquidations", func(r chi.Router) {
		r.Get("/", h.listLiquidations)
		r.Post("/", h.createLiquidation)
		r.Get("/{id}", h.getLiquidation)
		r.Put("/{id}/items", h.replaceLiquidationItems)
		r.Post("/{id}/submit", h.submitLiquidation)
		r.Group(func(r chi.Router) {
			r.Use(shared.RequireRole(shared.RoleApprover))
			r.Post("/{id}/approve", h.approveLiquidation)
			r.Post("/{id}/reject", h.rejectLiquidation)
		})
	})

	r.Route("/debit-memos", func(r chi.Router) {
		r.Get("/", h.listDebitMemos)
		r.Post("/", h.createDebitMemo)
		r.Get("/{id}", h.getDebitMemo)
		r.Group(func(r chi.Router) {
			r.Use(shared.RequireRole(shared.RoleApprover))
			r.Post("/{id}/post", h.postDebitMemo)
			r.Post("/{id}/cancel", h.cancelDebitMemo)
		})
	})

	r.Route("/check-vouchers", func(r chi.Router) {
		r.Get("/", h.listCheckVouchers)
		r.Post("/", h.createCheckVoucher)
		r.Get("/{id}", h.getCheckVoucher)
		r.Group(func(r chi.Router) {
			r.Use(shared.RequireRole(shared.RoleApprover))
			r.Post("/{id}/approve", h.approveCheckVoucher)
			r.Post("/{id}/pay", h.payCheckVoucher)
			r.Post("/{id}/cancel", h.cancelCheckVoucher)
		})
	})

	r.Route("/disbursements", func(r chi.Router) {
		r.Get("/", h.listDisbursements)
		r.Post("/", h.createDisbursement)
		r.Get("/{id}", h.getDisbursement)
		r.Group(func(r chi.Router) {
			r.Use(shared.RequireRole(shared.RoleApprover))
			r.Post("/{id}/complete", h.completeDisbursement)
			r.Post("/{id}/cancel", h.cancelDisbursement)
		})
	})
}

// Request parsing helpers

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

func parseAmount(s string) (decimal.Decimal, error) {
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

// Liquidations

type liquidationItemRequest struct {
	Date          string `json:"date" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Category      string `json:"category"`
	Amount        string `json:"amount" validate:"required"`
	ReceiptNumber string `json:"receipt_number"`
}

type createLiquidationRequest struct {
	EmployeeID        int64                    `json:"employee_id" validate:"required,gt=0"`
	ProjectName       string                   `json:"project_name"`
	CashAdvanceAmount string                   `json:"cash_advance_amount" validate:"required"`
	CashAdvanceDate   string                   `json:"cash_advance_date" validate:"required"`
	LiquidationDate   string                   `json:"liquidation_date"`
	Items             []liquidationItemRequest `json:"items" validate:"dive"`
	Remarks           string                   `json:"remarks"`
}

func (h *Handler) decodeLiquidationItems(reqs []liquidationItemRequest) ([]LiquidationItemInput, map[string]string) {
	items := make([]LiquidationItemInput, 0, len(reqs))
	for i, it := range reqs {
		date, err := parseDate(it.Date)
		if err != nil {
			return nil, map[string]string{"items": "item " + strconv.Itoa(i+1) + ": invalid date"}
		}
		amount, err := parseAmount(it.Amount)
		if err != nil {
			return nil, map[string]string{"items": "item " + strconv.Itoa(i+1) + ": invalid amount"}
		}
		items = append(items, LiquidationItemInput{
			Date:          date,
			Description:   it.Description,
			Category:      it.Category,
			Amount:        amount,
			ReceiptNumber: it.ReceiptNumber,
		})
	}
	return items, nil
}

func (h *Handler) createLiquidation(w http.ResponseWriter, r *http.Request) {
	var req createLiquidationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	amount, err := parseAmount(req.CashAdvanceAmount)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"cash_advance_amount": "invalid amount"})
		return
	}
	advanceDate, err := parseDate(req.CashAdvanceDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"cash_advance_date": "invalid date"})
		return
	}
	liqDate, err := parseDate(req.LiquidationDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"liquidation_date": "invalid date"})
		return
	}
	items, fieldErrs := h.decodeLiquidationItems(req.Items)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}

	liq, err := h.service.CreateLiquidation(r.Context(), CreateLiquidationInput{
		EmployeeID:        req.EmployeeID,
		ProjectName:       req.ProjectName,
		CashAdvanceAmount: amount,
		CashAdvanceDate:   advanceDate,
		LiquidationDate:   liqDate,
		Items:             items,
		Remarks:           req.Remarks,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create liquidation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("liquidations")
	httpx.JSON(w, http.StatusCreated, h.liquidationResponse(*liq, nil, false))
}

func (h *Handler) getLiquidation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	liq, items, totals, err := h.service.GetLiquidation(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := h.liquidationResponse(*liq, items, true)
	resp["balance"] = totals.Balance
	resp["refund_due"] = totals.RefundDue
	resp["reimbursement_due"] = totals.ReimbursementDue
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) listLiquidations(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListLiquidations(r.Context(), pageParam(r), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list liquidations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, liq := range rows {
		data = append(data, h.liquidationResponse(liq, nil, false))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) replaceLiquidationItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	var req struct {
		Items []liquidationItemRequest `json:"items" validate:"dive"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	items, fieldErrs := h.decodeLiquidationItems(req.Items)
	if fieldErrs != nil {
		httpx.ValidationProblem(w, fieldErrs)
		return
	}
	liq, saved, err := h.service.ReplaceLiquidationItems(r.Context(), id, items, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.liquidationResponse(*liq, saved, true))
}

func (h *Handler) submitLiquidation(w http.ResponseWriter, r *http.Request) {
	h.liquidationTransition(w, r, func(id, actor int64) (*Liquidation, error) {
		return h.service.SubmitLiquidation(r.Context(), id, actor)
	})
}

func (h *Handler) approveLiquidation(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.liquidationTransition(w, r, func(id, actor int64) (*Liquidation, error) {
		return h.service.ApproveLiquidation(r.Context(), id, actor, reason)
	})
}

func (h *Handler) rejectLiquidation(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.liquidationTransition(w, r, func(id, actor int64) (*Liquidation, error) {
		return h.service.RejectLiquidation(r.Context(), id, actor, reason)
	})
}

func (h *Handler) liquidationTransition(w http.ResponseWriter, r *http.Request, fn func(id, actor int64) (*Liquidation, error)) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	liq, err := fn(id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.liquidationResponse(*liq, nil, false))
}

func (h *Handler) liquidationResponse(liq Liquidation, items []LiquidationItem, withItems bool) map[string]any {
	resp := map[string]any{
		"id":                  liq.ID,
		"number":              liq.Number,
		"employee_id":         liq.EmployeeID,
		"project_name":        liq.ProjectName,
		"cash_advance_amount": liq.CashAdvanceAmount,
		"cash_advance_date":   shared.FormatDate(liq.CashAdvanceDate),
		"total_expenses":      liq.TotalExpenses,
		"liquidation_date":    shared.FormatDate(liq.LiquidationDate),
		"status":              liq.Status,
		"status_display":      shared.StatusLabel(string(liq.Status)),
		"remarks":             liq.Remarks,
		"amount_display":      shared.FormatAmount(liq.CashAdvanceAmount),
		"created_at":          liq.CreatedAt,
		"updated_at":          liq.UpdatedAt,
	}
	if liq.ApprovedBy != 0 {
		resp["approved_by"] = liq.ApprovedBy
		resp["approved_date"] = shared.FormatDateTime(liq.ApprovedDate)
	}
	if withItems {
		rows := make([]map[string]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, map[string]any{
				"id":             item.ID,
				"date":           shared.FormatDate(item.Date),
				"description":    item.Description,
				"category":       item.Category,
				"amount":         item.Amount,
				"receipt_number": item.ReceiptNumber,
			})
		}
		resp["items"] = rows
	}
	return resp
}

// Debit memos

type createDebitMemoRequest struct {
	MemoDate         string `json:"memo_date"`
	VendorName       string `json:"vendor_name" validate:"required"`
	VendorAddress    string `json:"vendor_address"`
	ReferenceInvoice string `json:"reference_invoice"`
	Reason           string `json:"reason"`
	Amount           string `json:"amount" validate:"required"`
	Remarks          string `json:"remarks"`
}

func (h *Handler) createDebitMemo(w http.ResponseWriter, r *http.Request) {
	var req createDebitMemoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"amount": "invalid amount"})
		return
	}
	memoDate, err := parseDate(req.MemoDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"memo_date": "invalid date"})
		return
	}

	memo, err := h.service.CreateDebitMemo(r.Context(), CreateDebitMemoInput{
		MemoDate:         memoDate,
		VendorName:       req.VendorName,
		VendorAddress:    req.VendorAddress,
		ReferenceInvoice: req.ReferenceInvoice,
		Reason:           req.Reason,
		Amount:           amount,
		Remarks:          req.Remarks,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create debit memo", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("debit_memos")
	httpx.JSON(w, http.StatusCreated, h.debitMemoResponse(*memo))
}

func (h *Handler) getDebitMemo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	memo, err := h.service.GetDebitMemo(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.debitMemoResponse(*memo))
}

func (h *Handler) listDebitMemos(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListDebitMemos(r.Context(), pageParam(r), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list debit memos", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, memo := range rows {
		data = append(data, h.debitMemoResponse(memo))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) postDebitMemo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	memo, err := h.service.PostDebitMemo(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.debitMemoResponse(*memo))
}

func (h *Handler) cancelDebitMemo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	memo, err := h.service.CancelDebitMemo(r.Context(), id, shared.ActorFromContext(r.Context()), decodeReason(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.debitMemoResponse(*memo))
}

func (h *Handler) debitMemoResponse(memo DebitMemo) map[string]any {
	resp := map[string]any{
		"id":                memo.ID,
		"number":            memo.Number,
		"memo_date":         shared.FormatDate(memo.MemoDate),
		"vendor_name":       memo.VendorName,
		"vendor_address":    memo.VendorAddress,
		"reference_invoice": memo.ReferenceInvoice,
		"reason":            memo.Reason,
		"amount":            memo.Amount,
		"amount_display":    shared.FormatAmount(memo.Amount),
		"status":            memo.Status,
		"status_display":    shared.StatusLabel(string(memo.Status)),
		"prepared_by":       memo.PreparedBy,
		"remarks":           memo.Remarks,
		"created_at":        memo.CreatedAt,
		"updated_at":        memo.UpdatedAt,
	}
	if memo.ApprovedBy != 0 {
		resp["approved_by"] = memo.ApprovedBy
		resp["approved_date"] = shared.FormatDateTime(memo.ApprovedDate)
	}
	return resp
}

// Check vouchers

type createCheckVoucherRequest struct {
	VoucherDate   string `json:"voucher_date"`
	PayeeName     string `json:"payee_name" validate:"required"`
	PayeeAddress  string `json:"payee_address"`
	CheckNumber   string `json:"check_number"`
	CheckDate     string `json:"check_date"`
	BankName      string `json:"bank_name"`
	Amount        string `json:"amount" validate:"required"`
	Particulars   string `json:"particulars"`
	InvoiceNumber string `json:"invoice_number"`
	ProjectName   string `json:"project_name"`
	Remarks       string `json:"remarks"`
}

func (h *Handler) createCheckVoucher(w http.ResponseWriter, r *http.Request) {
	var req createCheckVoucherRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"amount": "invalid amount"})
		return
	}
	voucherDate, err := parseDate(req.VoucherDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"voucher_date": "invalid date"})
		return
	}
	checkDate, err := parseDate(req.CheckDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"check_date": "invalid date"})
		return
	}

	voucher, err := h.service.CreateCheckVoucher(r.Context(), CreateCheckVoucherInput{
		VoucherDate:   voucherDate,
		PayeeName:     req.PayeeName,
		PayeeAddress:  req.PayeeAddress,
		CheckNumber:   req.CheckNumber,
		CheckDate:     checkDate,
		BankName:      req.BankName,
		Amount:        amount,
		Particulars:   req.Particulars,
		InvoiceNumber: req.InvoiceNumber,
		ProjectName:   req.ProjectName,
		Remarks:       req.Remarks,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create check voucher", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("check_vouchers")
	httpx.JSON(w, http.StatusCreated, h.checkVoucherResponse(*voucher))
}

func (h *Handler) getCheckVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	voucher, err := h.service.GetCheckVoucher(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.checkVoucherResponse(*voucher))
}

func (h *Handler) listCheckVouchers(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListCheckVouchers(r.Context(), pageParam(r), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list check vouchers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, voucher := range rows {
		data = append(data, h.checkVoucherResponse(voucher))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) approveCheckVoucher(w http.ResponseWriter, r *http.Request) {
	h.voucherTransition(w, r, func(id, actor int64) (*CheckVoucher, error) {
		return h.service.ApproveCheckVoucher(r.Context(), id, actor)
	})
}

func (h *Handler) payCheckVoucher(w http.ResponseWriter, r *http.Request) {
	h.voucherTransition(w, r, func(id, actor int64) (*CheckVoucher, error) {
		return h.service.PayCheckVoucher(r.Context(), id, actor)
	})
}

func (h *Handler) cancelCheckVoucher(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)
	h.voucherTransition(w, r, func(id, actor int64) (*CheckVoucher, error) {
		return h.service.CancelCheckVoucher(r.Context(), id, actor, reason)
	})
}

func (h *Handler) voucherTransition(w http.ResponseWriter, r *http.Request, fn func(id, actor int64) (*CheckVoucher, error)) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	voucher, err := fn(id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.checkVoucherResponse(*voucher))
}

func (h *Handler) checkVoucherResponse(voucher CheckVoucher) map[string]any {
	resp := map[string]any{
		"id":              voucher.ID,
		"number":          voucher.Number,
		"voucher_date":    shared.FormatDate(voucher.VoucherDate),
		"payee_name":      voucher.PayeeName,
		"payee_address":   voucher.PayeeAddress,
		"check_number":    voucher.CheckNumber,
		"check_date":      shared.FormatDate(voucher.CheckDate),
		"bank_name":       voucher.BankName,
		"amount":          voucher.Amount,
		"amount_display":  shared.FormatAmount(voucher.Amount),
		"amount_in_words": voucher.AmountInWords,
		"particulars":     voucher.Particulars,
		"invoice_number":  voucher.InvoiceNumber,
		"project_name":    voucher.ProjectName,
		"status":          voucher.Status,
		"status_display":  shared.StatusLabel(string(voucher.Status)),
		"prepared_by":     voucher.PreparedBy,
		"remarks":         voucher.Remarks,
		"created_at":      voucher.CreatedAt,
		"updated_at":      voucher.UpdatedAt,
	}
	if voucher.ApprovedBy != 0 {
		resp["approved_by"] = voucher.ApprovedBy
		resp["approved_date"] = shared.FormatDateTime(voucher.ApprovedDate)
	}
	return resp
}

// Disbursements

type createDisbursementRequest struct {
	DisbursementDate string `json:"disbursement_date"`
	RecipientName    string `json:"recipient_name" validate:"required"`
	RecipientType    string `json:"recipient_type"`
	Amount           string `json:"amount" validate:"required"`
	PaymentMethod    string `json:"payment_method" validate:"required"`
	ReferenceNumber  string `json:"reference_number"`
	Purpose          string `json:"purpose"`
	Category         string `json:"category"`
	ProjectName      string `json:"project_name"`
	CheckVoucherID   int64  `json:"check_voucher_id"`
	Remarks          string `json:"remarks"`
}

func (h *Handler) createDisbursement(w http.ResponseWriter, r *http.Request) {
	var req createDisbursementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, h.fieldErrors(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"amount": "invalid amount"})
		return
	}
	date, err := parseDate(req.DisbursementDate)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"disbursement_date": "invalid date"})
		return
	}

	disb, err := h.service.CreateDisbursement(r.Context(), CreateDisbursementInput{
		DisbursementDate: date,
		RecipientName:    req.RecipientName,
		RecipientType:    req.RecipientType,
		Amount:           amount,
		PaymentMethod:    PaymentMethod(req.PaymentMethod),
		ReferenceNumber:  req.ReferenceNumber,
		Purpose:          req.Purpose,
		Category:         req.Category,
		ProjectName:      req.ProjectName,
		CheckVoucherID:   req.CheckVoucherID,
		Remarks:          req.Remarks,
	}, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create disbursement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordCreated("disbursements")
	httpx.JSON(w, http.StatusCreated, h.disbursementResponse(*disb))
}

func (h *Handler) getDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	disb, err := h.service.GetDisbursement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.disbursementResponse(*disb))
}

func (h *Handler) listDisbursements(w http.ResponseWriter, r *http.Request) {
	rows, pagination, err := h.service.ListDisbursements(r.Context(), pageParam(r), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list disbursements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, disb := range rows {
		data = append(data, h.disbursementResponse(disb))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

func (h *Handler) completeDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	disb, err := h.service.CompleteDisbursement(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.disbursementResponse(*disb))
}

func (h *Handler) cancelDisbursement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return
	}
	disb, err := h.service.CancelDisbursement(r.Context(), id, shared.ActorFromContext(r.Context()), decodeReason(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.disbursementResponse(*disb))
}

func (h *Handler) disbursementResponse(disb Disbursement) map[string]any {
	resp := map[string]any{
		"id":                disb.ID,
		"number":            disb.Number,
		"disbursement_date": shared.FormatDate(disb.DisbursementDate),
		"recipient_name":    disb.RecipientName,
		"recipient_type":    disb.RecipientType,
		"amount":            disb.Amount,
		"amount_display":    shared.FormatAmount(disb.Amount),
		"payment_method":    disb.PaymentMethod,
		"reference_number":  disb.ReferenceNumber,
		"purpose":           disb.Purpose,
		"category":          disb.Category,
		"project_name":      disb.ProjectName,
		"status":            disb.Status,
		"status_display":    shared.StatusLabel(string(disb.Status)),
		"processed_by":      disb.ProcessedBy,
		"remarks":           disb.Remarks,
		"created_at":        disb.CreatedAt,
		"updated_at":        disb.UpdatedAt,
	}
	if disb.CheckVoucherID != 0 {
		resp["check_voucher_id"] = disb.CheckVoucherID
	}
	return resp
}
