package handler

import (
	"strconv"
	"time"

	journalapp "github.com/haulage/backend/internal/application/journal"
	"github.com/haulage/backend/internal/domain/journal"
	"github.com/haulage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// JournalHandler handles running-balance journal API endpoints
type JournalHandler struct {
	BaseHandler
	journalService *journalapp.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journalService *journalapp.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// CreateEntryRequest is the request body for recording a movement. With
// anchor_sequence set the entry is inserted after that position; anchor 0
// inserts at the head; omitted the entry is placed after the last movement
// dated on or before it.
type CreateEntryRequest struct {
	EntryDate      string          `json:"entry_date" binding:"required"`
	Counterparty   string          `json:"counterparty" binding:"max=200"`
	Amount         decimal.Decimal `json:"amount"`
	RefCode        string          `json:"ref_code" binding:"max=50"`
	Note           string          `json:"note" binding:"max=500"`
	AnchorSequence *int64          `json:"anchor_sequence"`
}

// AmendEntryRequest is the request body for rewriting a movement
type AmendEntryRequest struct {
	EntryDate    string          `json:"entry_date" binding:"required"`
	Counterparty string          `json:"counterparty" binding:"max=200"`
	Amount       decimal.Decimal `json:"amount"`
	RefCode      string          `json:"ref_code" binding:"max=50"`
	Note         string          `json:"note" binding:"max=500"`
}

// ImportEntriesRequest is the request body for a bulk statement import
type ImportEntriesRequest struct {
	Entries []AmendEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// LockRangeRequest is the request body for freezing a date range
type LockRangeRequest struct {
	FromDate string `json:"from_date" binding:"required"`
	ToDate   string `json:"to_date" binding:"required"`
}

// ListEntriesRequest is the query string for the cross-account entry listing
type ListEntriesRequest struct {
	dto.ListRequest
	AccountCode string `form:"account_code"`
	Status      string `form:"status"`
	RefCode     string `form:"ref_code"`
	FromDate    string `form:"from_date"`
	ToDate      string `form:"to_date"`
}

// EntryResponse is the wire representation of a journal entry
type EntryResponse struct {
	ID           string          `json:"id"`
	AccountCode  string          `json:"account_code"`
	Sequence     int64           `json:"sequence"`
	EntryDate    string          `json:"entry_date"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Status       string          `json:"status"`
	RefCode      string          `json:"ref_code,omitempty"`
	Note         string          `json:"note,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToEntryResponse maps a domain entry to its wire representation
func ToEntryResponse(e *journal.JournalEntry) EntryResponse {
	return EntryResponse{
		ID:           e.ID.String(),
		AccountCode:  e.AccountCode,
		Sequence:     e.Sequence,
		EntryDate:    e.EntryDate.Format(dateLayout),
		Counterparty: e.Counterparty,
		Amount:       e.Amount,
		BalanceAfter: e.BalanceAfter,
		Status:       e.Status.String(),
		RefCode:      e.RefCode,
		Note:         e.Note,
		UpdatedAt:    e.UpdatedAt,
	}
}

// JournalResponse is one account's full sequence with its closing balance
type JournalResponse struct {
	AccountCode    string          `json:"account_code"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Entries        []EntryResponse `json:"entries"`
}

func (h *JournalHandler) entryInput(req AmendEntryRequest) (journalapp.EntryInput, bool) {
	entryDate, ok := parseDate(req.EntryDate)
	if !ok {
		return journalapp.EntryInput{}, false
	}
	return journalapp.EntryInput{
		EntryDate:    entryDate,
		Counterparty: req.Counterparty,
		Amount:       req.Amount,
		RefCode:      req.RefCode,
		Note:         req.Note,
	}, true
}

// CreateEntry appends or inserts a movement on the account
func (h *JournalHandler) CreateEntry(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	input, ok := h.entryInput(AmendEntryRequest{
		EntryDate: req.EntryDate, Counterparty: req.Counterparty,
		Amount: req.Amount, RefCode: req.RefCode, Note: req.Note,
	})
	if !ok {
		h.BadRequest(c, "entry_date must be formatted as YYYY-MM-DD")
		return
	}

	accountCode := c.Param("accountCode")
	var entry *journal.JournalEntry
	var err error
	if req.AnchorSequence != nil {
		entry, err = h.journalService.InsertEntry(c.Request.Context(), accountCode, *req.AnchorSequence, input)
	} else {
		entry, err = h.journalService.AppendEntry(c.Request.Context(), accountCode, input)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ToEntryResponse(entry))
}

// ImportEntries bulk-appends a statement sheet to the account
func (h *JournalHandler) ImportEntries(c *gin.Context) {
	var req ImportEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inputs := make([]journalapp.EntryInput, len(req.Entries))
	for i, row := range req.Entries {
		input, ok := h.entryInput(row)
		if !ok {
			h.BadRequest(c, "entry_date must be formatted as YYYY-MM-DD")
			return
		}
		inputs[i] = input
	}

	imported, err := h.journalService.BulkImport(c.Request.Context(), c.Param("accountCode"), inputs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]EntryResponse, len(imported))
	for i, e := range imported {
		items[i] = ToEntryResponse(e)
	}
	h.Created(c, items)
}

// AmendEntry rewrites a movement and recomputes later balances
func (h *JournalHandler) AmendEntry(c *gin.Context) {
	sequence, err := strconv.ParseInt(c.Param("sequence"), 10, 64)
	if err != nil {
		h.BadRequest(c, "sequence must be an integer")
		return
	}
	var req AmendEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	input, ok := h.entryInput(req)
	if !ok {
		h.BadRequest(c, "entry_date must be formatted as YYYY-MM-DD")
		return
	}

	entry, err := h.journalService.AmendEntry(c.Request.Context(), c.Param("accountCode"), sequence, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToEntryResponse(entry))
}

// DeleteEntry removes a movement and closes the sequence gap
func (h *JournalHandler) DeleteEntry(c *gin.Context) {
	sequence, err := strconv.ParseInt(c.Param("sequence"), 10, 64)
	if err != nil {
		h.BadRequest(c, "sequence must be an integer")
		return
	}

	if err := h.journalService.DeleteEntry(c.Request.Context(), c.Param("accountCode"), sequence); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LockRange freezes every movement dated inside the range
func (h *JournalHandler) LockRange(c *gin.Context) {
	var req LockRangeRequest
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

	locked, err := h.journalService.LockRange(c.Request.Context(), c.Param("accountCode"), fromDate, toDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"entries_locked": locked})
}

// GetAccount returns the account's full sequence and closing balance
func (h *JournalHandler) GetAccount(c *gin.Context) {
	j, err := h.journalService.GetJournal(c.Request.Context(), c.Param("accountCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]EntryResponse, len(j.Entries))
	for i, e := range j.Entries {
		entries[i] = ToEntryResponse(e)
	}
	h.Success(c, JournalResponse{
		AccountCode:    j.AccountCode,
		ClosingBalance: j.ClosingBalance(),
		Entries:        entries,
	})
}

// GetBalance returns the account's current position
func (h *JournalHandler) GetBalance(c *gin.Context) {
	balance, err := h.journalService.GetBalance(c.Request.Context(), c.Param("accountCode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Verify checks the account's sequence and balance-chain invariants
func (h *JournalHandler) Verify(c *gin.Context) {
	if err := h.journalService.VerifyAccount(c.Request.Context(), c.Param("accountCode")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"consistent": true})
}

// ListAccounts returns every account code with at least one entry
func (h *JournalHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.journalService.ListAccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// ListEntries returns a filtered, paginated listing across accounts
func (h *JournalHandler) ListEntries(c *gin.Context) {
	var req ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := journal.EntryFilter{
		AccountCode: req.AccountCode,
		Status:      journal.EntryStatus(req.Status),
		RefCode:     req.RefCode,
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

	page, err := h.journalService.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]EntryResponse, len(page.Items))
	for i, e := range page.Items {
		items[i] = ToEntryResponse(e)
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes registers all journal routes
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	journals := rg.Group("/journal")
	{
		journals.GET("", h.ListAccounts)
		journals.GET("/entries", h.ListEntries)
		journals.GET("/:accountCode", h.GetAccount)
		journals.GET("/:accountCode/balance", h.GetBalance)
		journals.GET("/:accountCode/verify", h.Verify)
		journals.POST("/:accountCode/entries", h.CreateEntry)
		journals.POST("/:accountCode/import", h.ImportEntries)
		journals.POST("/:accountCode/lock", h.LockRange)
		journals.PUT("/:accountCode/entries/:sequence", h.AmendEntry)
		journals.DELETE("/:accountCode/entries/:sequence", h.DeleteEntry)
	}
}
