package handler

import (
	"time"

	ledgerapp "github.com/haulage/backend/internal/application/ledger"
	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader deduplicates retried receipt submissions
const IdempotencyKeyHeader = "Idempotency-Key"

// ReceiptHandler handles payment receipt API endpoints
type ReceiptHandler struct {
	BaseHandler
	receiptService *ledgerapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *ledgerapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// AllocationRequestItem is one caller-chosen period debit
type AllocationRequestItem struct {
	DebtCode string          `json:"debt_code" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreateReceiptRequest is the request body for posting a payment. Without
// allocations the amount is distributed oldest-period-first.
type CreateReceiptRequest struct {
	CustomerCode string                  `json:"customer_code" binding:"required,min=1,max=50"`
	Amount       decimal.Decimal         `json:"amount"`
	Method       string                  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD OTHER"`
	Note         string                  `json:"note" binding:"max=500"`
	Allocations  []AllocationRequestItem `json:"allocations"`
}

// CancelReceiptRequest is the request body for cancelling a receipt
type CancelReceiptRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ListReceiptsRequest is the query string for the receipt listing
type ListReceiptsRequest struct {
	dto.ListRequest
	CustomerCode string `form:"customer_code"`
	Status       string `form:"status"`
	Method       string `form:"method"`
	FromDate     string `form:"from_date"`
	ToDate       string `form:"to_date"`
}

// AllocationResponse is one period debit on a receipt
type AllocationResponse struct {
	DebtCode          string          `json:"debt_code"`
	Amount            decimal.Decimal `json:"amount"`
	RemainAmountAfter decimal.Decimal `json:"remain_amount_after"`
	AllocatedAt       time.Time       `json:"allocated_at"`
}

// ReceiptResponse is the wire representation of a payment receipt
type ReceiptResponse struct {
	ID                string               `json:"id"`
	ReceiptNumber     string               `json:"receipt_number"`
	CustomerCode      string               `json:"customer_code"`
	Amount            decimal.Decimal      `json:"amount"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	Method            string               `json:"method"`
	Status            string               `json:"status"`
	Note              string               `json:"note,omitempty"`
	CreatedBy         string               `json:"created_by"`
	Allocations       []AllocationResponse `json:"allocations"`
	CancelledAt       *time.Time           `json:"cancelled_at,omitempty"`
	CancelledBy       string               `json:"cancelled_by,omitempty"`
	CancelReason      string               `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ToReceiptResponse maps a domain receipt to its wire representation
func ToReceiptResponse(r *ledger.PaymentReceipt) ReceiptResponse {
	allocations := make([]AllocationResponse, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = AllocationResponse{
			DebtCode:          a.DebtCode,
			Amount:            a.Amount,
			RemainAmountAfter: a.RemainAmountAfter,
			AllocatedAt:       a.AllocatedAt,
		}
	}
	return ReceiptResponse{
		ID:                r.ID.String(),
		ReceiptNumber:     r.ReceiptNumber,
		CustomerCode:      r.CustomerCode,
		Amount:            r.Amount,
		AllocatedAmount:   r.AllocatedAmount,
		UnallocatedAmount: r.UnallocatedAmount,
		Method:            r.Method.String(),
		Status:            r.Status.String(),
		Note:              r.Note,
		CreatedBy:         r.CreatedBy,
		Allocations:       allocations,
		CancelledAt:       r.CancelledAt,
		CancelledBy:       r.CancelledBy,
		CancelReason:      r.CancelReason,
		CreatedAt:         r.CreatedAt,
	}
}

// CreateReceiptResponse is the posting outcome: the receipt plus the portion
// of the amount that found no open period.
type CreateReceiptResponse struct {
	Receipt           ReceiptResponse  `json:"receipt"`
	TouchedPeriods    []PeriodResponse `json:"touched_periods"`
	UnallocatedAmount decimal.Decimal  `json:"unallocated_amount"`
}

// Create posts a payment receipt and applies it to the customer's periods
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	allocations := make([]ledgerapp.AllocationRequest, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = ledgerapp.AllocationRequest{DebtCode: a.DebtCode, Amount: a.Amount}
	}

	result, err := h.receiptService.CreateReceipt(c.Request.Context(), ledgerapp.CreateReceiptRequest{
		CustomerCode:   req.CustomerCode,
		Amount:         req.Amount,
		Method:         ledger.PaymentMethod(req.Method),
		Note:           req.Note,
		CreatedBy:      getActor(c),
		Allocations:    allocations,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	touched := make([]PeriodResponse, len(result.TouchedPeriods))
	for i, p := range result.TouchedPeriods {
		touched[i] = ToPeriodResponse(p)
	}
	resp := CreateReceiptResponse{
		Receipt:           ToReceiptResponse(result.Receipt),
		TouchedPeriods:    touched,
		UnallocatedAmount: result.UnallocatedAmount,
	}
	// A duplicate submission is answered with the already-posted receipt.
	if result.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// Cancel reverses every allocation of the receipt and marks it cancelled
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	var req CancelReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.CancelReceipt(c.Request.Context(),
		c.Param("receiptNumber"), getActor(c), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToReceiptResponse(receipt))
}

// Get returns one receipt by its number
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), c.Param("receiptNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToReceiptResponse(receipt))
}

// List returns a filtered, paginated receipt listing
func (h *ReceiptHandler) List(c *gin.Context) {
	var req ListReceiptsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.ReceiptFilter{
		CustomerCode: req.CustomerCode,
		Status:       ledger.ReceiptStatus(req.Status),
		Method:       ledger.PaymentMethod(req.Method),
	}
	filter.Page = req.PageOrDefault()
	filter.PageSize = req.PageSizeOrDefault()
	if req.FromDate != "" {
		if from, ok := parseDate(req.FromDate); ok {
			filter.FromDate = &from
		}
	}
	if req.ToDate != "" {
		if to, ok := parseDate(req.ToDate); ok {
			filter.ToDate = &to
		}
	}

	page, err := h.receiptService.ListReceipts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ReceiptResponse, len(page.Items))
	for i, r := range page.Items {
		items[i] = ToReceiptResponse(r)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// ListByPeriod returns the payment history of one debt period
func (h *ReceiptHandler) ListByPeriod(c *gin.Context) {
	receipts, err := h.receiptService.ListByPeriod(c.Request.Context(), c.Param("debtCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ReceiptResponse, len(receipts))
	for i, r := range receipts {
		items[i] = ToReceiptResponse(r)
	}
	h.Success(c, items)
}

// RegisterRoutes registers all payment receipt routes
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.Create)
		receipts.GET("", h.List)
		receipts.GET("/:receiptNumber", h.Get)
		receipts.POST("/:receiptNumber/cancel", h.Cancel)
	}
	rg.GET("/debt-periods/:debtCode/receipts", h.ListByPeriod)
}
