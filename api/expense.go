package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"kontor/database"
	"kontor/middleware"
	"kontor/models"
	"kontor/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler handles expenses and recurring templates.
type ExpenseHandler struct{}

// NewExpenseHandler creates an expense handler.
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// DepreciationRequest carries depreciation settings on create/update.
type DepreciationRequest struct {
	Type      string `json:"type" binding:"omitempty,oneof=none immediate partial" example:"partial"`
	Years     int    `json:"years" example:"3"`
	StartDate string `json:"start_date" example:"2024-01-01"`
	Method    string `json:"method" binding:"omitempty,oneof=linear degressive" example:"linear"`
}

// CreateExpenseRequest is the payload for creating an expense or a recurring
// template.
type CreateExpenseRequest struct {
	Amount              decimal.Decimal      `json:"amount" binding:"required" example:"119.00"`
	NetAmount           decimal.Decimal      `json:"net_amount" example:"100.00"`
	TaxRate             decimal.Decimal      `json:"tax_rate" example:"19"`
	Currency            string               `json:"currency" example:"EUR"`
	Category            string               `json:"category" binding:"required" example:"Software & Subscriptions"`
	Description         string               `json:"description" example:"IDE license"`
	Notes               string               `json:"notes"`
	Tags                string               `json:"tags" example:"tools,annual"`
	ExpenseDate         string               `json:"expense_date" binding:"required" example:"2024-01-15"`
	Billable            bool                 `json:"billable"`
	Reimbursable        bool                 `json:"reimbursable"`
	IsRecurring         bool                 `json:"is_recurring"`
	Frequency           string               `json:"frequency" example:"monthly"`
	RecurrenceStartDate string               `json:"recurrence_start_date" example:"2024-01-01"`
	RecurrenceEndDate   string               `json:"recurrence_end_date" example:"2025-12-31"`
	Depreciation        *DepreciationRequest `json:"depreciation"`
}

// UpdateExpenseRequest is the payload for updating an expense or template.
// Changing frequency, start or end date of a recurring template deletes all
// generated occurrences and backfills from scratch.
type UpdateExpenseRequest struct {
	Amount              *decimal.Decimal     `json:"amount"`
	NetAmount           *decimal.Decimal     `json:"net_amount"`
	TaxRate             *decimal.Decimal     `json:"tax_rate"`
	Currency            string               `json:"currency"`
	Category            string               `json:"category"`
	Description         *string              `json:"description"`
	Notes               *string              `json:"notes"`
	Tags                *string              `json:"tags"`
	ExpenseDate         string               `json:"expense_date"`
	Billable            *bool                `json:"billable"`
	Reimbursable        *bool                `json:"reimbursable"`
	Frequency           string               `json:"frequency"`
	RecurrenceStartDate string               `json:"recurrence_start_date"`
	RecurrenceEndDate   string               `json:"recurrence_end_date"`
	Depreciation        *DepreciationRequest `json:"depreciation"`
}

// ExpenseListRequest filters the expense list.
type ExpenseListRequest struct {
	Page        int    `form:"page" example:"1"`
	PageSize    int    `form:"page_size" example:"10"`
	Category    string `form:"category"`
	StartDate   string `form:"start_date" example:"2024-01-01"`
	EndDate     string `form:"end_date" example:"2024-12-31"`
	IsRecurring *bool  `form:"is_recurring"`
	ParentID    *uint  `form:"parent_id"`
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// applyTaxSplit derives net and tax amounts from the gross amount when the
// caller did not provide a net amount. Two-decimal rounding, no truncation.
func applyTaxSplit(e *models.Expense) {
	if !e.NetAmount.IsZero() {
		e.TaxAmount = e.Amount.Sub(e.NetAmount)
		return
	}
	if e.TaxRate.IsZero() {
		e.NetAmount = e.Amount
		e.TaxAmount = decimal.Zero
		return
	}
	divisor := decimal.NewFromInt(1).Add(e.TaxRate.Div(decimal.NewFromInt(100)))
	e.NetAmount = e.Amount.Div(divisor).Round(2)
	e.TaxAmount = e.Amount.Sub(e.NetAmount)
}

func applyDepreciation(e *models.Expense, req *DepreciationRequest) error {
	if req != nil {
		e.DepreciationType = req.Type
		e.DepreciationYears = req.Years
		e.DepreciationMethod = req.Method
		start, err := parseOptionalDate(req.StartDate)
		if err != nil {
			return errors.New("invalid depreciation start_date, expected 2006-01-02")
		}
		e.DepreciationStartDate = start
	}
	if e.DepreciationType == "" {
		e.DepreciationType = models.DepreciationNone
	}

	deductible, err := service.TaxDeductibleAmount(e.DepreciationSettings, e.NetAmount)
	if err != nil {
		return err
	}
	e.TaxDeductibleAmount = &deductible
	return nil
}

// Create creates an expense or recurring template
// @Summary Create expense
// @Description Creates an expense. When is_recurring is set, the record becomes a template and all historical occurrences between its start date and today are generated synchronously in one transaction.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "expense payload"
// @Success 200 {object} Response{data=models.Expense}
// @Failure 400 {object} Response
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		BadRequest(c, "category must not be empty")
		return
	}
	var cat models.ExpenseCategory
	if err := database.DB.Where("name = ?", req.Category).First(&cat).Error; err != nil {
		BadRequest(c, "unknown category, maintain categories first")
		return
	}

	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		BadRequest(c, "invalid expense_date, expected 2006-01-02")
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	expense := models.Expense{
		UserID:       userID,
		Amount:       req.Amount,
		NetAmount:    req.NetAmount,
		TaxRate:      req.TaxRate,
		Currency:     currency,
		Category:     req.Category,
		Description:  req.Description,
		Notes:        req.Notes,
		Tags:         req.Tags,
		ExpenseDate:  expenseDate,
		Status:       models.StatusApproved,
		Billable:     req.Billable,
		Reimbursable: req.Reimbursable,
		IsRecurring:  req.IsRecurring,
	}
	applyTaxSplit(&expense)

	if req.IsRecurring {
		if !service.ValidFrequency(req.Frequency) {
			BadRequest(c, "invalid frequency, expected monthly, quarterly or yearly")
			return
		}
		expense.Frequency = req.Frequency
		start, err := parseOptionalDate(req.RecurrenceStartDate)
		if err != nil {
			BadRequest(c, "invalid recurrence_start_date, expected 2006-01-02")
			return
		}
		end, err := parseOptionalDate(req.RecurrenceEndDate)
		if err != nil {
			BadRequest(c, "invalid recurrence_end_date, expected 2006-01-02")
			return
		}
		expense.RecurrenceStartDate = start
		expense.RecurrenceEndDate = end
	}

	if err := applyDepreciation(&expense, req.Depreciation); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "creating expense failed"))
		return
	}

	if expense.DepreciationType == models.DepreciationPartial {
		if err := service.NewDepreciationService(database.DB).ReplaceSchedule(&expense); err != nil {
			InternalError(c, SafeErrorMessage(err, "building depreciation schedule failed"))
			return
		}
	}

	if expense.IsTemplate() {
		if _, err := service.NewRecurringService(database.DB).Backfill(&expense); err != nil {
			InternalError(c, SafeErrorMessage(err, "generating occurrences failed"))
			return
		}
	}

	SuccessWithMessage(c, "created", expense)
}

// List lists expenses
// @Summary List expenses
// @Description Lists the current user's expenses with pagination and filters.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(10)
// @Param category query string false "category filter"
// @Param start_date query string false "start date (2024-01-01)"
// @Param end_date query string false "end date (2024-12-31)"
// @Param is_recurring query bool false "templates only"
// @Param parent_id query int false "occurrences of one template"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}}
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Expense{}).Where("user_id = ?", userID)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.IsRecurring != nil {
		query = query.Where("is_recurring = ?", *req.IsRecurring)
	}
	if req.ParentID != nil {
		query = query.Where("parent_id = ?", *req.ParentID)
	}
	if req.StartDate != "" {
		if startDate, err := parseDate(req.StartDate); err == nil {
			query = query.Where("expense_date >= ?", startDate)
		}
	}
	if req.EndDate != "" {
		if endDate, err := parseDate(req.EndDate); err == nil {
			query = query.Where("expense_date <= ?", endDate)
		}
	}

	var total int64
	query.Count(&total)

	var expenses []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("expense_date DESC").Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get returns one expense
// @Summary Get expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Success 200 {object} Response{data=models.Expense}
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	Success(c, expense)
}

// Update updates an expense or template
// @Summary Update expense
// @Description Updates an expense. For a recurring template, a change to frequency, start or end date deletes every generated occurrence and backfills from scratch; depreciation changes propagate to all occurrences.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Param request body UpdateExpenseRequest true "expense payload"
// @Success 200 {object} Response{data=models.Expense}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	if req.Amount != nil {
		expense.Amount = *req.Amount
		expense.NetAmount = decimal.Zero
	}
	if req.NetAmount != nil {
		expense.NetAmount = *req.NetAmount
	}
	if req.TaxRate != nil {
		expense.TaxRate = *req.TaxRate
	}
	if req.Amount != nil || req.NetAmount != nil || req.TaxRate != nil {
		applyTaxSplit(&expense)
	}
	if req.Currency != "" {
		expense.Currency = req.Currency
	}
	if req.Category != "" {
		category := strings.TrimSpace(req.Category)
		var cat models.ExpenseCategory
		if err := database.DB.Where("name = ?", category).First(&cat).Error; err != nil {
			BadRequest(c, "unknown category, maintain categories first")
			return
		}
		expense.Category = category
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Notes != nil {
		expense.Notes = *req.Notes
	}
	if req.Tags != nil {
		expense.Tags = *req.Tags
	}
	if req.Billable != nil {
		expense.Billable = *req.Billable
	}
	if req.Reimbursable != nil {
		expense.Reimbursable = *req.Reimbursable
	}
	if req.ExpenseDate != "" {
		expenseDate, err := parseDate(req.ExpenseDate)
		if err != nil {
			BadRequest(c, "invalid expense_date, expected 2006-01-02")
			return
		}
		expense.ExpenseDate = expenseDate
	}

	recurrenceChanged := req.ExpenseDate != ""
	if req.Frequency != "" {
		if !service.ValidFrequency(req.Frequency) {
			BadRequest(c, "invalid frequency, expected monthly, quarterly or yearly")
			return
		}
		expense.Frequency = req.Frequency
		recurrenceChanged = true
	}
	if req.RecurrenceStartDate != "" {
		start, err := parseDate(req.RecurrenceStartDate)
		if err != nil {
			BadRequest(c, "invalid recurrence_start_date, expected 2006-01-02")
			return
		}
		expense.RecurrenceStartDate = &start
		recurrenceChanged = true
	}
	if req.RecurrenceEndDate != "" {
		end, err := parseDate(req.RecurrenceEndDate)
		if err != nil {
			BadRequest(c, "invalid recurrence_end_date, expected 2006-01-02")
			return
		}
		expense.RecurrenceEndDate = &end
		recurrenceChanged = true
	}

	depreciationChanged := req.Depreciation != nil ||
		(expense.DepreciationType == models.DepreciationPartial && (req.Amount != nil || req.NetAmount != nil))
	if err := applyDepreciation(&expense, req.Depreciation); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Save(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "updating expense failed"))
		return
	}

	if depreciationChanged {
		depService := service.NewDepreciationService(database.DB)
		if err := depService.ReplaceSchedule(&expense); err != nil {
			InternalError(c, SafeErrorMessage(err, "rebuilding depreciation schedule failed"))
			return
		}
		if expense.IsTemplate() {
			if err := depService.PropagateSettings(&expense); err != nil {
				InternalError(c, SafeErrorMessage(err, "propagating depreciation settings failed"))
				return
			}
		}
	}

	if expense.IsTemplate() && recurrenceChanged {
		if _, err := service.NewRecurringService(database.DB).Regenerate(&expense); err != nil {
			InternalError(c, SafeErrorMessage(err, "regenerating occurrences failed"))
			return
		}
	}

	SuccessWithMessage(c, "updated", expense)
}

// Delete removes an expense or a whole template
// @Summary Delete expense
// @Description Deletes an expense. Deleting a recurring template also deletes every generated occurrence and all depreciation schedules.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "record not found")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if expense.IsTemplate() {
			var childIDs []uint
			if err := tx.Model(&models.Expense{}).
				Where("parent_id = ?", expense.ID).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			if len(childIDs) > 0 {
				if err := tx.Where("expense_id IN ?", childIDs).
					Delete(&models.DepreciationScheduleEntry{}).Error; err != nil {
					return err
				}
				if err := tx.Where("parent_id = ?", expense.ID).
					Delete(&models.Expense{}).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("expense_id = ?", expense.ID).
			Delete(&models.DepreciationScheduleEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "deleting expense failed"))
		return
	}

	SuccessWithMessage(c, "deleted", nil)
}

// GetCategories lists expense categories
// @Summary List categories
// @Tags expenses
// @Produce json
// @Success 200 {object} Response{data=[]models.ExpenseCategory}
// @Router /api/v1/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	var list []models.ExpenseCategory
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}
	Success(c, list)
}
