package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"kontor/database"
	"kontor/middleware"
	"kontor/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportHandler exports expenses for accounting handover.
type ExportHandler struct{}

// NewExportHandler creates an export handler.
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

func (h *ExportHandler) loadExpenses(c *gin.Context) ([]models.Expense, bool) {
	userID := middleware.GetCurrentUserID(c)

	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")
	if startDateStr == "" || endDateStr == "" {
		BadRequest(c, "start_date and end_date are required")
		return nil, false
	}

	startDate, err := parseDate(startDateStr)
	if err != nil {
		BadRequest(c, "invalid start_date, expected 2006-01-02")
		return nil, false
	}
	endDate, err := parseDate(endDateStr)
	if err != nil {
		BadRequest(c, "invalid end_date, expected 2006-01-02")
		return nil, false
	}

	var expenses []models.Expense
	if err := database.DB.
		Where("user_id = ? AND expense_date >= ? AND expense_date <= ?", userID, startDate, endDate).
		Order("expense_date ASC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "query failed"))
		return nil, false
	}
	return expenses, true
}

// ExportCSV exports expenses as CSV
// @Summary Export expenses (CSV)
// @Tags export
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "start date (2024-01-01)"
// @Param end_date query string true "end date (2024-12-31)"
// @Success 200 {file} file
// @Failure 400 {object} Response
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, ok := h.loadExpenses(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// BOM keeps umlauts readable when opened in Excel.
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	headers := []string{"ID", "Date", "Category", "Description", "Amount", "Net", "Tax", "Currency", "Recurring", "Deductible"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "writing CSV failed")
		return
	}

	for _, e := range expenses {
		deductible := ""
		if e.TaxDeductibleAmount != nil {
			deductible = e.TaxDeductibleAmount.StringFixed(2)
		}
		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.ExpenseDate.Format("2006-01-02"),
			e.Category,
			e.Description,
			e.Amount.StringFixed(2),
			e.NetAmount.StringFixed(2),
			e.TaxAmount.StringFixed(2),
			e.Currency,
			fmt.Sprintf("%t", e.IsRecurring),
			deductible,
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "writing CSV failed")
			return
		}
	}
	writer.Flush()

	filename := fmt.Sprintf("expenses_%s_%s.csv", c.Query("start_date"), c.Query("end_date"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ExportExcel exports expenses as XLSX
// @Summary Export expenses (Excel)
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "start date (2024-01-01)"
// @Param end_date query string true "end date (2024-12-31)"
// @Success 200 {file} file
// @Failure 400 {object} Response
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	expenses, ok := h.loadExpenses(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Expenses"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 24)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "G", 12)
	f.SetColWidth(sheetName, "H", "H", 10)
	f.SetColWidth(sheetName, "I", "J", 12)

	headers := []string{"ID", "Date", "Category", "Description", "Amount", "Net", "Tax", "Currency", "Recurring", "Deductible"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	totalAmount := decimal.Zero
	for i, e := range expenses {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.ExpenseDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.Amount.StringFixed(2))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.NetAmount.StringFixed(2))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.TaxAmount.StringFixed(2))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), e.Currency)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), e.IsRecurring)
		if e.TaxDeductibleAmount != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), e.TaxDeductibleAmount.StringFixed(2))
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), dataStyle)
		totalAmount = totalAmount.Add(e.Amount)
	}

	summaryRow := len(expenses) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Total")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", summaryRow), totalAmount.StringFixed(2))
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("%d records", len(expenses)))
	f.MergeCell(sheetName, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("J%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("J%d", summaryRow), summaryStyle)

	filename := fmt.Sprintf("expenses_%s_%s.xlsx", c.Query("start_date"), c.Query("end_date"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "writing Excel failed"})
		return
	}
}
