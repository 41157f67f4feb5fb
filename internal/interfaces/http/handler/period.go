package handler

import (
	"time"

	ledgerapp "github.com/haulage/backend/internal/application/ledger"
	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PeriodHandler handles debt period API endpoints
type PeriodHandler struct {
	BaseHandler
	periodService *ledgerapp.PeriodService
}

// NewPeriodHandler creates a new PeriodHandler
func NewPeriodHandler(periodService *ledgerapp.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

// CreatePeriodRequest is the request body for opening a debt period
type CreatePeriodRequest struct {
	CustomerCode string          `json:"customer_code" binding:"required,min=1,max=50"`
	ManageMonth  string          `json:"manage_month" binding:"required,len=7"`
	FromDate     string          `json:"from_date" binding:"required"`
	ToDate       string          `json:"to_date" binding:"required"`
	VATPercent   decimal.Decimal `json:"vat_percent"`
	Note         string          `json:"note" binding:"max=500"`
}

// UpdatePeriodRequest is the request body for editing a debt period
type UpdatePeriodRequest struct {
	FromDate   string          `json:"from_date" binding:"required"`
	ToDate     string          `json:"to_date" binding:"required"`
	VATPercent decimal.Decimal `json:"vat_percent"`
	Note       string          `json:"note" binding:"max=500"`
}

// SetChargesRequest is the request body for seeding charges into a period
type SetChargesRequest struct {
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	CashAmount    decimal.Decimal `json:"cash_amount"`
	OtherAmount   decimal.Decimal `json:"other_amount"`
	TripCount     int             `json:"trip_count" binding:"min=0"`
}

// ListPeriodsRequest is the query string for the period listing
type ListPeriodsRequest struct {
	dto.ListRequest
	CustomerCode string `form:"customer_code"`
	ManageMonth  string `form:"manage_month"`
	Status       string `form:"status"`
	IsLocked     *bool  `form:"is_locked"`
	FromDate     string `form:"from_date"`
	ToDate       string `form:"to_date"`
}

// PeriodResponse is the wire representation of a debt period
type PeriodResponse struct {
	ID             string          `json:"id"`
	DebtCode       string          `json:"debt_code"`
	CustomerCode   string          `json:"customer_code"`
	CustomerName   string          `json:"customer_name"`
	ManageMonth    string          `json:"manage_month"`
	FromDate       string          `json:"from_date"`
	ToDate         string          `json:"to_date"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	InvoiceAmount  decimal.Decimal `json:"invoice_amount"`
	CashAmount     decimal.Decimal `json:"cash_amount"`
	OtherAmount    decimal.Decimal `json:"other_amount"`
	VATPercent     decimal.Decimal `json:"vat_percent"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	RemainAmount   decimal.Decimal `json:"remain_amount"`
	TripCount      int             `json:"trip_count"`
	Status         string          `json:"status"`
	Classification string          `json:"classification"`
	Overcollected  bool            `json:"overcollected"`
	IsLocked       bool            `json:"is_locked"`
	LockedBy       string          `json:"locked_by,omitempty"`
	LockedAt       *time.Time      `json:"locked_at,omitempty"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToPeriodResponse maps a domain period to its wire representation
func ToPeriodResponse(p *ledger.DebtPeriod) PeriodResponse {
	return PeriodResponse{
		ID:             p.ID.String(),
		DebtCode:       p.DebtCode,
		CustomerCode:   p.CustomerCode,
		CustomerName:   p.CustomerName,
		ManageMonth:    p.ManageMonth,
		FromDate:       p.FromDate.Format(dateLayout),
		ToDate:         p.ToDate.Format(dateLayout),
		TotalAmount:    p.TotalAmount,
		InvoiceAmount:  p.TotalAmountInvoice,
		CashAmount:     p.TotalAmountCash,
		OtherAmount:    p.TotalOther,
		VATPercent:     p.VATPercent,
		PaidAmount:     p.PaidAmount,
		RemainAmount:   p.RemainAmount,
		TripCount:      p.TripCount,
		Status:         p.Status.String(),
		Classification: string(p.Classification()),
		Overcollected:  p.IsOvercollected(),
		IsLocked:       p.IsLocked,
		LockedBy:       p.LockedBy,
		LockedAt:       p.LockedAt,
		Note:           p.Note,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	return t, err == nil
}

// Create opens a new debt period for a customer
func (h *PeriodHandler) Create(c *gin.Context) {
	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	fromDate, ok := parseDate(req.FromDate)
	if !ok {
		h.BadRequest(c, "from_date must be formatted as YYYY-MM-DD")
		return
	}
	toDate, ok := parseDate(req.ToDate)
	if !ok {
		h.BadRequest(c, "to_date must be formatted as YYYY-MM-DD")
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), ledgerapp.CreatePeriodRequest{
		CustomerCode: req.CustomerCode,
		ManageMonth:  req.ManageMonth,
		FromDate:     fromDate,
		ToDate:       toDate,
		VATPercent:   req.VATPercent,
		Note:         req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ToPeriodResponse(period))
}

// SetCharges seeds or revises a period's charge totals
func (h *PeriodHandler) SetCharges(c *gin.Context) {
	var req SetChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.periodService.SetCharges(c.Request.Context(), c.Param("debtCode"), ledger.ChargeBreakdown{
		InvoiceAmount: req.InvoiceAmount,
		CashAmount:    req.CashAmount,
		OtherAmount:   req.OtherAmount,
		TripCount:     req.TripCount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToPeriodResponse(result.Period))
}

// Update edits the mutable fields of an unlocked period
func (h *PeriodHandler) Update(c *gin.Context) {
	var req UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	fromDate, ok := parseDate(req.FromDate)
	if !ok {
		h.BadRequest(c, "from_date must be formatted as YYYY-MM-DD")
		return
	}
	toDate, ok := parseDate(req.ToDate)
	if !ok {
		h.BadRequest(c, "to_date must be formatted as YYYY-MM-DD")
		return
	}

	period, err := h.periodService.UpdatePeriod(c.Request.Context(), c.Param("debtCode"), ledgerapp.UpdatePeriodRequest{
		FromDate:   fromDate,
		ToDate:     toDate,
		VATPercent: req.VATPercent,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToPeriodResponse(period))
}

// Lock freezes a period against edits, payments and deletion
func (h *PeriodHandler) Lock(c *gin.Context) {
	period, err := h.periodService.LockPeriod(c.Request.Context(), c.Param("debtCode"), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToPeriodResponse(period))
}

// Unlock lifts the freeze on a period
func (h *PeriodHandler) Unlock(c *gin.Context) {
	period, err := h.periodService.UnlockPeriod(c.Request.Context(), c.Param("debtCode"), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToPeriodResponse(period))
}

// Delete removes a period that carries no payments
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.periodService.DeletePeriod(c.Request.Context(), c.Param("debtCode")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get returns one period by its debt code
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periodService.GetPeriod(c.Request.Context(), c.Param("debtCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToPeriodResponse(period))
}

// List returns a filtered, paginated period listing
func (h *PeriodHandler) List(c *gin.Context) {
	var req ListPeriodsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.PeriodFilter{
		CustomerCode: req.CustomerCode,
		ManageMonth:  req.ManageMonth,
		Status:       ledger.PeriodStatus(req.Status),
		IsLocked:     req.IsLocked,
	}
	filter.Page = req.PageOrDefault()
	filter.PageSize = req.PageSizeOrDefault()
	filter.Search = req.Search
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

	page, err := h.periodService.ListPeriods(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]PeriodResponse, len(page.Items))
	for i, p := range page.Items {
		items[i] = ToPeriodResponse(p)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// CustomerSummary aggregates a customer's position across all periods
func (h *PeriodHandler) CustomerSummary(c *gin.Context) {
	summary, err := h.periodService.GetCustomerSummary(c.Request.Context(), c.Param("customerCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RegisterRoutes registers all debt period routes
func (h *PeriodHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/debt-periods")
	{
		periods.POST("", h.Create)
		periods.GET("", h.List)
		periods.GET("/:debtCode", h.Get)
		periods.PUT("/:debtCode", h.Update)
		periods.PUT("/:debtCode/charges", h.SetCharges)
		periods.POST("/:debtCode/lock", h.Lock)
		periods.POST("/:debtCode/unlock", h.Unlock)
		periods.DELETE("/:debtCode", h.Delete)
	}
	rg.GET("/customers/:customerCode/debt-summary", h.CustomerSummary)
}
