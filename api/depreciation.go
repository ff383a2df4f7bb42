package api

import (
	"errors"
	"strconv"

	"kontor/database"
	"kontor/middleware"
	"kontor/models"
	"kontor/service"

	"github.com/gin-gonic/gin"
)

// DepreciationHandler exposes depreciation schedules and deductible amounts.
type DepreciationHandler struct{}

// NewDepreciationHandler creates a depreciation handler.
func NewDepreciationHandler() *DepreciationHandler {
	return &DepreciationHandler{}
}

// GetSchedule returns the stored depreciation schedule
// @Summary Depreciation schedule
// @Description Returns the year-by-year depreciation schedule of the expense, ordered by year. Empty for expenses without partial depreciation.
// @Tags depreciation
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Success 200 {object} Response{data=[]models.DepreciationScheduleEntry}
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id}/schedule [get]
func (h *DepreciationHandler) GetSchedule(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	entries, err := service.NewDepreciationService(database.DB).GetSchedule(userID, uint(id))
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return
	}
	if entries == nil {
		entries = []models.DepreciationScheduleEntry{}
	}
	Success(c, entries)
}

// UpdateSettings updates the depreciation settings of an expense
// @Summary Update depreciation settings
// @Description Replaces the expense's depreciation settings and rebuilds its schedule. For a recurring template the settings propagate to every generated occurrence, with child schedules anchored at the template's start date.
// @Tags depreciation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Param request body DepreciationRequest true "depreciation settings"
// @Success 200 {object} Response{data=models.Expense}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id}/depreciation [put]
func (h *DepreciationHandler) UpdateSettings(c *gin.Context) {
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

	var req DepreciationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	if err := applyDepreciation(&expense, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Save(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "updating expense failed"))
		return
	}

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

	SuccessWithMessage(c, "updated", expense)
}

// GetDeductible returns the deductible amount for a tax year
// @Summary Deductible amount
// @Description Returns the amount deductible for the given tax year. Zero outside the scheduled range. Without a year parameter the acquisition-year deductible amount is returned.
// @Tags depreciation
// @Produce json
// @Security BearerAuth
// @Param id path int true "expense ID"
// @Param year query int false "tax year"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/expenses/{id}/deductible [get]
func (h *DepreciationHandler) GetDeductible(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid ID")
		return
	}

	yearStr := c.Query("year")
	if yearStr == "" {
		var expense models.Expense
		if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
			NotFound(c, "record not found")
			return
		}
		amount, err := service.TaxDeductibleAmount(expense.DepreciationSettings, expense.NetAmount)
		if errors.Is(err, service.ErrInvalidDepreciationInput) {
			BadRequest(c, err.Error())
			return
		}
		if err != nil {
			InternalError(c, SafeErrorMessage(err, "computation failed"))
			return
		}
		Success(c, gin.H{"expense_id": expense.ID, "amount": amount})
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		BadRequest(c, "invalid year")
		return
	}

	amount, err := service.NewDepreciationService(database.DB).AmountForYear(userID, uint(id), year)
	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "computation failed"))
		return
	}
	Success(c, gin.H{"expense_id": uint(id), "year": year, "amount": amount})
}
